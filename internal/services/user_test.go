package services

import (
	"context"
	"testing"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/media"
	"github.com/maxim190404/foodgram-st/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerRequest(username string) *RegisterRequest {
	return &RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Иван",
		LastName:  "Петров",
		Password:  "s3cret-pass",
	}
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, registerRequest("ivan"))
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "ivan@example.com", user.Email)
	assert.Equal(t, []queue.EventType{queue.EventUserRegistered}, env.publisher.types())

	req := registerRequest("ivan")
	req.Email = "other@example.com"
	_, err = env.users.Register(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrUsernameTaken)

	req = registerRequest("ivan2")
	req.Email = "IVAN@example.com"
	_, err = env.users.Register(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)

	logged, err := env.users.Login(ctx, &LoginRequest{Email: "Ivan@Example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = env.users.Login(ctx, &LoginRequest{Email: "ivan@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = env.users.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestUserService_SetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, registerRequest("ivan"))
	require.NoError(t, err)

	err = env.users.SetPassword(ctx, user.ID, &SetPasswordRequest{CurrentPassword: "nope", NewPassword: "new-pass"})
	assert.ErrorIs(t, err, apperr.ErrWrongPassword)

	require.NoError(t, env.users.SetPassword(ctx, user.ID, &SetPasswordRequest{CurrentPassword: "s3cret-pass", NewPassword: "new-pass"}))

	_, err = env.users.Login(ctx, &LoginRequest{Email: "ivan@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = env.users.Login(ctx, &LoginRequest{Email: "ivan@example.com", Password: "new-pass"})
	assert.NoError(t, err)
}

func TestUserService_Avatar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, registerRequest("ivan"))
	require.NoError(t, err)

	assert.ErrorIs(t, env.users.DeleteAvatar(ctx, user.ID), apperr.ErrAvatarNotSet)

	img, err := media.DecodeDataURI(pngDataURI())
	require.NoError(t, err)

	first, err := env.users.SetAvatar(ctx, user.ID, img, testBaseURL)
	require.NoError(t, err)
	assert.Regexp(t, `^http://testserver/media/users/avatars/.+\.png$`, first)
	assert.True(t, env.storage.has(first))

	second, err := env.users.SetAvatar(ctx, user.ID, img, testBaseURL)
	require.NoError(t, err)
	event := env.publisher.last()
	assert.Equal(t, queue.EventAvatarUpdated, event.Type)
	assert.Equal(t, first[len(testBaseURL):], event.Data.(queue.AvatarEventData).StaleAvatar)

	me, err := env.users.Me(ctx, user.ID, testBaseURL)
	require.NoError(t, err)
	assert.Equal(t, second, me.Avatar)
	assert.False(t, me.IsSubscribed)

	require.NoError(t, env.users.DeleteAvatar(ctx, user.ID))
	event = env.publisher.last()
	assert.Equal(t, queue.EventAvatarDeleted, event.Type)
	assert.Equal(t, second[len(testBaseURL):], event.Data.(queue.AvatarEventData).StaleAvatar)

	me, err = env.users.Me(ctx, user.ID, testBaseURL)
	require.NoError(t, err)
	assert.Empty(t, me.Avatar)
}

func TestUserService_GetAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, err := env.users.Register(ctx, registerRequest("alice"))
	require.NoError(t, err)
	bob, err := env.users.Register(ctx, registerRequest("bob"))
	require.NoError(t, err)
	_, err = env.users.Register(ctx, registerRequest("carol"))
	require.NoError(t, err)

	_, err = env.follows.Follow(ctx, alice.ID, bob.ID, 0, testBaseURL)
	require.NoError(t, err)

	seen, err := env.users.Get(ctx, alice.ID, bob.ID, testBaseURL)
	require.NoError(t, err)
	assert.True(t, seen.IsSubscribed)
	assert.Empty(t, seen.Avatar)

	anonymous, err := env.users.Get(ctx, 0, bob.ID, testBaseURL)
	require.NoError(t, err)
	assert.False(t, anonymous.IsSubscribed)

	_, err = env.users.Get(ctx, 0, 999, testBaseURL)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	page, err := env.users.List(ctx, alice.ID, Pagination{Page: 1, Limit: 2}, testBaseURL)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Count)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "alice", page.Items[0].Username)
	assert.False(t, page.Items[0].IsSubscribed)
	assert.True(t, page.Items[1].IsSubscribed)
}
