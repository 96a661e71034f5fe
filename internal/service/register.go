package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/identity"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/model"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/repository"
)

var (
	// ErrPlayerNotFound means the game API has no player with the
	// exact requested name.
	ErrPlayerNotFound = errors.New("no player with that name exists")
	// ErrGuildMismatch means the player exists but is not a member of
	// the configured guild.
	ErrGuildMismatch = errors.New("player is not a member of the guild")
	// ErrNameTaken means another chat member already registered the
	// in-game name.
	ErrNameTaken = errors.New("in-game name is already registered")
	// ErrAlreadyRegistered means the user holds an account already.
	ErrAlreadyRegistered = repository.ErrAlreadyRegistered
)

// AmbiguousNameError reports that more than one player matched the
// requested name exactly and the caller must disambiguate.
type AmbiguousNameError struct {
	Candidates []identity.Player
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("%d players share that name", len(e.Candidates))
}

// PlayerAPI is the slice of the game API the registration flow needs.
type PlayerAPI interface {
	SearchExact(ctx context.Context, name string) ([]identity.Player, error)
	PlayerDetails(ctx context.Context, id string) (*identity.Player, error)
}

// UserStore is the slice of the user repository the registration flow
// needs.
type UserStore interface {
	FindByInGameName(ctx context.Context, chatID int64, name string) (*model.User, error)
	Register(ctx context.Context, chatID, userID int64, inGameName string) (*model.User, error)
}

// RegisterService verifies in-game identity against the game API and
// creates ledger accounts. Verification fails closed: when the API is
// unreachable no account is created.
type RegisterService struct {
	users     UserStore
	api       PlayerAPI
	guildName string
}

// NewRegisterService creates a registration service bound to one guild.
func NewRegisterService(users UserStore, api PlayerAPI, guildName string) *RegisterService {
	return &RegisterService{users: users, api: api, guildName: guildName}
}

// Register verifies that name belongs to exactly one player of the
// configured guild and creates the user's account with a zero balance.
func (s *RegisterService) Register(ctx context.Context, chatID, userID int64, name string) (*model.User, error) {
	players, err := s.api.SearchExact(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("verifying player name: %w", err)
	}
	switch {
	case len(players) == 0:
		return nil, ErrPlayerNotFound
	case len(players) > 1:
		return nil, &AmbiguousNameError{Candidates: players}
	}

	details, err := s.api.PlayerDetails(ctx, players[0].ID)
	if err != nil {
		return nil, fmt.Errorf("fetching player details: %w", err)
	}
	if !strings.EqualFold(details.GuildName, s.guildName) {
		return nil, ErrGuildMismatch
	}

	if existing, err := s.users.FindByInGameName(ctx, chatID, details.Name); err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
	} else if existing.UserID != userID {
		return nil, ErrNameTaken
	}

	user, err := s.users.Register(ctx, chatID, userID, details.Name)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("chat", chatID).
		Int64("user", userID).
		Str("name", details.Name).
		Msg("User registered")
	return user, nil
}
