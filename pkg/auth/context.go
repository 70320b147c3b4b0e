package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Actor is the user a request acts as. It comes from verified JWT claims or,
// when verification is disabled, from the dev session cookie.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// IsAdmin reports whether the actor has the admin role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == "admin"
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor retrieves the acting user from the context.
func GetActor(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(*Actor)
	return actor, ok && actor != nil
}

// GetUserID returns the acting user's ID, or nil and false for anonymous
// requests.
func GetUserID(ctx context.Context) (*uuid.UUID, bool) {
	actor, ok := GetActor(ctx)
	if !ok {
		return nil, false
	}
	id := actor.UserID
	return &id, true
}

// RequireUserID returns the acting user's ID or an error if the request is
// anonymous.
func RequireUserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := GetUserID(ctx)
	if !ok {
		return uuid.Nil, fmt.Errorf("acting user not found in context")
	}
	return *id, nil
}

// ActorFromClaims builds an Actor from verified claims. The subject must be
// a CRM user UUID.
func ActorFromClaims(claims *Claims) (*Actor, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject in JWT claims")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject in JWT claims: %w", err)
	}
	return &Actor{UserID: id, Role: claims.Role}, nil
}
