package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

func TestTokenRoundTrip(t *testing.T) {
	user := models.User{ID: "alice", Name: "Alice", Image: "https://cdn.example/a.png", Role: "reader"}

	token, err := GenerateToken(user, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user, claims.User())
}

func TestParseToken_RejectsExpired(t *testing.T) {
	token, err := GenerateToken(models.User{ID: "alice"}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_RejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestTokenBlacklist_MemoryFallback(t *testing.T) {
	token := "revoked-token-" + time.Now().Format("150405.000")

	assert.False(t, IsTokenBlacklisted(token))

	BlacklistToken(token, time.Now().Add(time.Minute))
	assert.True(t, IsTokenBlacklisted(token))
}

func TestTokenBlacklist_ExpiredEntryIsDropped(t *testing.T) {
	token := "briefly-revoked-" + time.Now().Format("150405.000")

	BlacklistToken(token, time.Now().Add(-time.Second))
	assert.False(t, IsTokenBlacklisted(token))
}
