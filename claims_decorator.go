package auth

import "context"

// ClaimsDecorator lets integrators extend token claims before signing, e.g.
// tenant or feature annotations under Metadata. Registered claims and the
// identity claims are immutable; mutating them aborts issuance.
type ClaimsDecorator interface {
	DecorateClaims(ctx context.Context, user *User, claims *JWTClaims) error
}

// ClaimsDecoratorFunc adapts a function to the ClaimsDecorator interface
type ClaimsDecoratorFunc func(ctx context.Context, user *User, claims *JWTClaims) error

func (f ClaimsDecoratorFunc) DecorateClaims(ctx context.Context, user *User, claims *JWTClaims) error {
	return f(ctx, user, claims)
}

type noopClaimsDecorator struct{}

func (noopClaimsDecorator) DecorateClaims(context.Context, *User, *JWTClaims) error {
	return nil
}

func normalizeClaimsDecorator(decorator ClaimsDecorator) ClaimsDecorator {
	if decorator == nil {
		return noopClaimsDecorator{}
	}
	return decorator
}
