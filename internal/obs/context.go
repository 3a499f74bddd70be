package obs

import "context"

type contextKey string

const routePatternKey contextKey = "route_pattern"

// WithRoutePattern stores the matched chi route pattern in the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey, pattern)
}

// RoutePatternFromContext retrieves the matched route pattern, if any.
func RoutePatternFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(routePatternKey).(string); ok {
		return v
	}
	return ""
}
