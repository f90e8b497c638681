package bloc

import "context"

// scopeKey namespaces registry entries so they cannot collide with other
// context values.
type scopeKey struct{ key any }

// Provide returns a context carrying value under key. Lookups walk outward
// to the nearest enclosing Provide for the same key, so nested scopes may
// shadow an outer registration. Installing a value never mutates an
// existing scope; it derives a new one.
func Provide(ctx context.Context, key, value any) context.Context {
	return context.WithValue(ctx, scopeKey{key: key}, value)
}

// LookupValue returns the value registered for key in the nearest enclosing
// scope of ctx, asserted to T. The second result is false when no scope in
// the chain registered the key or the registered value is not a T.
func LookupValue[T any](ctx context.Context, key any) (T, bool) {
	v, ok := ctx.Value(scopeKey{key: key}).(T)
	return v, ok
}
