package tenancy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()

	_, ok := OrgIDFromContext(ctx)
	assert.False(t, ok)
	_, ok = UserIDFromContext(ctx)
	assert.False(t, ok)

	ctx = WithUserID(WithOrgID(ctx, "org-1"), "officer-7")
	org, ok := OrgIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "org-1", org)
	user, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "officer-7", user)

	_, ok = UserIDFromContext(WithUserID(context.Background(), ""))
	assert.False(t, ok)
}
