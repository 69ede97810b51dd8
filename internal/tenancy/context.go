package tenancy

import "context"

type ctxKey string

const (
	orgKey  ctxKey = "incident.org_id"
	userKey ctxKey = "incident.user_id"
)

// WithOrgID stores the org id in context.
func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgKey, orgID)
}

// OrgIDFromContext extracts the org id if present.
func OrgIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, orgKey)
}

// WithUserID stores the authenticated user (officer) id in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserIDFromContext extracts the user id if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, userKey)
}

func stringValue(ctx context.Context, key ctxKey) (string, bool) {
	val, ok := ctx.Value(key).(string)
	return val, ok && val != ""
}
