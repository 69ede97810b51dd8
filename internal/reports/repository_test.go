package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepository(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, repo.Create(ctx, &Report{
			ID:        id,
			OrgID:     "org-a",
			Fields:    map[string]string{"date": "d"},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.Create(ctx, &Report{ID: "other", OrgID: "org-b", CreatedAt: base}))

	got, err := repo.GetByID(ctx, "org-a", "r2")
	require.NoError(t, err)
	assert.Equal(t, "r2", got.ID)
	got.Fields["date"] = "mutated"
	again, _ := repo.GetByID(ctx, "org-a", "r2")
	assert.Equal(t, "d", again.Fields["date"])

	_, err = repo.GetByID(ctx, "org-a", "other")
	assert.ErrorIs(t, err, ErrReportNotFound)

	list, err := repo.ListByOrg(ctx, "org-a", ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r3", list[0].ID)
	assert.Equal(t, "r2", list[1].ID)

	list, err = repo.ListByOrg(ctx, "org-a", ListFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "r1", list[0].ID)

	list, err = repo.ListByOrg(ctx, "org-a", ListFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
}
