package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/config"
)

// A chat passes the whitelist check exactly when it is listed, and an
// empty whitelist admits every chat.
func TestWhitelistMembershipProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chats := rapid.SliceOfN(rapid.Int64Range(-1_000_000, -1), 0, 10).Draw(t, "chats")
		cfg := &config.Config{Whitelist: config.WhitelistConfig{Chats: chats}}

		chatID := rapid.Int64Range(-1_000_000, -1).Draw(t, "chatID")

		listed := false
		for _, id := range chats {
			if id == chatID {
				listed = true
				break
			}
		}
		want := listed || len(chats) == 0
		if got := cfg.IsChatAllowed(chatID); got != want {
			t.Fatalf("IsChatAllowed(%d) = %v, want %v (whitelist %v)", chatID, got, want, chats)
		}
	})
}

func TestKnownMemberCache(t *testing.T) {
	assert.False(t, isKnownMember(987654))
	rememberMember(987654)
	assert.True(t, isKnownMember(987654))
}
