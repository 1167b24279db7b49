package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleString(t *testing.T) {
	assert.Equal(t, "viewer", Role(0).String())
	assert.Equal(t, "moderator", RoleModerator.String())
	assert.Equal(t, "broadcaster,subscriber", (RoleBroadcaster | RoleSubscriber).String())
}

func TestCanModerate(t *testing.T) {
	assert.True(t, Author{Roles: RoleModerator}.CanModerate())
	assert.True(t, Author{Roles: RoleBroadcaster | RoleVIP}.CanModerate())
	assert.False(t, Author{Roles: RoleVIP | RoleSubscriber}.CanModerate())
	assert.False(t, Author{}.CanModerate())
}

func TestAuthorKey(t *testing.T) {
	a := Message{Platform: PlatformTwitch, Author: Author{ID: "42"}}
	b := Message{Platform: PlatformDiscord, Author: Author{ID: "42"}}
	assert.Equal(t, "twitch:42", a.AuthorKey())
	assert.NotEqual(t, a.AuthorKey(), b.AuthorKey())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "he...", Truncate("hello world", 5))
	assert.Equal(t, "héllo...", Truncate("héllo wörld", 8))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
