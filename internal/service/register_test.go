package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/identity"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/model"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/repository"
)

type fakeAPI struct {
	players []identity.Player
	details map[string]*identity.Player
	err     error
}

func (f *fakeAPI) SearchExact(context.Context, string) ([]identity.Player, error) {
	return f.players, f.err
}

func (f *fakeAPI) PlayerDetails(_ context.Context, id string) (*identity.Player, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.details[id], nil
}

type fakeUserStore struct {
	byName     map[string]*model.User
	registered map[int64]bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byName:     make(map[string]*model.User),
		registered: make(map[int64]bool),
	}
}

func (f *fakeUserStore) FindByInGameName(_ context.Context, _ int64, name string) (*model.User, error) {
	if u, ok := f.byName[name]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) Register(_ context.Context, chatID, userID int64, inGameName string) (*model.User, error) {
	if f.registered[userID] {
		return nil, repository.ErrAlreadyRegistered
	}
	f.registered[userID] = true
	u := &model.User{ChatID: chatID, UserID: userID, InGameName: inGameName}
	f.byName[inGameName] = u
	return u, nil
}

func phoenixPlayer() *fakeAPI {
	return &fakeAPI{
		players: []identity.Player{{ID: "p1", Name: "Shade", GuildName: "Phoenix"}},
		details: map[string]*identity.Player{
			"p1": {ID: "p1", Name: "Shade", GuildName: "Phoenix"},
		},
	}
}

func TestRegisterHappyPath(t *testing.T) {
	store := newFakeUserStore()
	svc := NewRegisterService(store, phoenixPlayer(), "Phoenix")

	user, err := svc.Register(context.Background(), 100, 1, "shade")
	require.NoError(t, err)
	// The canonical API spelling wins over what the user typed.
	assert.Equal(t, "Shade", user.InGameName)
	assert.True(t, store.registered[1])
}

func TestRegisterUnknownPlayer(t *testing.T) {
	svc := NewRegisterService(newFakeUserStore(), &fakeAPI{}, "Phoenix")

	_, err := svc.Register(context.Background(), 100, 1, "Nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestRegisterAmbiguousName(t *testing.T) {
	api := &fakeAPI{players: []identity.Player{
		{ID: "p1", Name: "Shade", GuildName: "Phoenix"},
		{ID: "p2", Name: "Shade", GuildName: "Other"},
	}}
	svc := NewRegisterService(newFakeUserStore(), api, "Phoenix")

	_, err := svc.Register(context.Background(), 100, 1, "Shade")
	var ambiguous *AmbiguousNameError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Candidates, 2)
}

func TestRegisterGuildMismatch(t *testing.T) {
	api := phoenixPlayer()
	api.details["p1"].GuildName = "Rival Guild"
	svc := NewRegisterService(newFakeUserStore(), api, "Phoenix")

	_, err := svc.Register(context.Background(), 100, 1, "Shade")
	assert.ErrorIs(t, err, ErrGuildMismatch)
}

func TestRegisterGuildComparisonIgnoresCase(t *testing.T) {
	svc := NewRegisterService(newFakeUserStore(), phoenixPlayer(), "PHOENIX")

	_, err := svc.Register(context.Background(), 100, 1, "Shade")
	assert.NoError(t, err)
}

func TestRegisterNameHeldByAnotherMember(t *testing.T) {
	store := newFakeUserStore()
	store.byName["Shade"] = &model.User{ChatID: 100, UserID: 2, InGameName: "Shade"}
	svc := NewRegisterService(store, phoenixPlayer(), "Phoenix")

	_, err := svc.Register(context.Background(), 100, 1, "Shade")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestRegisterFailsClosedOnAPIError(t *testing.T) {
	store := newFakeUserStore()
	svc := NewRegisterService(store, &fakeAPI{err: errors.New("api down")}, "Phoenix")

	_, err := svc.Register(context.Background(), 100, 1, "Shade")
	assert.Error(t, err)
	assert.False(t, store.registered[1], "no account may be created when verification is unavailable")
}
