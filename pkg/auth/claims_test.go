package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClaims(t *testing.T) {
	claims := &Claims{Email: "ada@example.com"}
	ctx := context.WithValue(context.Background(), ClaimsKey, claims)

	got, ok := GetClaims(ctx)
	require.True(t, ok)
	assert.Same(t, claims, got)

	_, ok = GetClaims(context.Background())
	assert.False(t, ok)

	_, ok = GetClaims(context.WithValue(context.Background(), ClaimsKey, "not-claims"))
	assert.False(t, ok)
}

func TestGetToken(t *testing.T) {
	token, ok := GetToken(context.WithValue(context.Background(), TokenKey, "raw"))
	assert.True(t, ok)
	assert.Equal(t, "raw", token)

	_, ok = GetToken(context.Background())
	assert.False(t, ok)
}

func TestActorContext(t *testing.T) {
	id := uuid.New()
	ctx := WithActor(context.Background(), &Actor{UserID: id, Role: "admin"})

	got, ok := GetUserID(ctx)
	require.True(t, ok)
	assert.Equal(t, id, *got)

	actor, ok := GetActor(ctx)
	require.True(t, ok)
	assert.True(t, actor.IsAdmin())

	required, err := RequireUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, required)

	_, ok = GetUserID(context.Background())
	assert.False(t, ok)
	_, err = RequireUserID(context.Background())
	assert.Error(t, err)

	var nobody *Actor
	assert.False(t, nobody.IsAdmin())
}

func TestActorFromClaims(t *testing.T) {
	id := uuid.New()

	claims := &Claims{Role: "sales"}
	claims.Subject = id.String()
	actor, err := ActorFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, id, actor.UserID)
	assert.Equal(t, "sales", actor.Role)

	claims.Subject = ""
	_, err = ActorFromClaims(claims)
	assert.Error(t, err)

	claims.Subject = "user-123"
	_, err = ActorFromClaims(claims)
	assert.Error(t, err)
}
