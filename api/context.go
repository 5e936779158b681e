package api

import (
	"context"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/auth"
)

type keyType string

const principalKey keyType = "principal"

// ctxWithPrincipal adds the resolved principal to the context
func ctxWithPrincipal(ctx context.Context, principal auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// ctxGetPrincipal returns the principal, or an anonymous one when none was resolved
func ctxGetPrincipal(ctx context.Context) auth.Principal {
	principal, _ := ctx.Value(principalKey).(auth.Principal)
	return principal
}
