package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_MigratesAuthTables(t *testing.T) {
	db := setupTestDB(t, "all", All()...)

	m := db.Migrator()
	for _, table := range []interface{}{&Role{}, &User{}, &Session{}, &SecurityLog{}, &PasswordReset{}} {
		assert.True(t, m.HasTable(table), "%T", table)
	}
	assert.True(t, m.HasIndex(&Session{}, "SessionToken"))
	assert.True(t, m.HasIndex(&PasswordReset{}, "TokenHash"))
	assert.True(t, m.HasIndex(&User{}, "Email"))
}

func TestPasswordReset_TokenHashIsUnique(t *testing.T) {
	db := setupTestDB(t, "reset_unique", &PasswordReset{})

	expires := time.Now().Add(time.Hour)
	require.NoError(t, db.Create(&PasswordReset{UserID: 1, TokenHash: "abc", ExpiresAt: expires}).Error)
	assert.Error(t, db.Create(&PasswordReset{UserID: 2, TokenHash: "abc", ExpiresAt: expires}).Error)
}

func TestSession_JSONShape(t *testing.T) {
	expires := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	b, err := json.Marshal(Session{UserID: 5, SessionToken: "tok", ExpiresAt: expires, ClientIP: "10.0.0.1"})
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, float64(5), out["user_id"])
	assert.Equal(t, "tok", out["session_token"])
	assert.Equal(t, "2026-10-19T09:00:00Z", out["expires_at"])
	assert.Equal(t, "10.0.0.1", out["client_ip"])
	assert.NotContains(t, out, "deleted_at")
	assert.NotContains(t, out, "DeletedAt")
}

func TestPasswordReset_JSONHidesTokenHash(t *testing.T) {
	used := time.Now()
	b, err := json.Marshal(PasswordReset{UserID: 5, TokenHash: "secret-digest", UsedAt: &used})
	require.NoError(t, err)

	assert.NotContains(t, string(b), "secret-digest")
	assert.NotContains(t, string(b), "token_hash")
	assert.Contains(t, string(b), `"used_at"`)

	b, err = json.Marshal(PasswordReset{UserID: 5})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "used_at")
}
