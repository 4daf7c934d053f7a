package endpoint_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ariebrainware/medlink/config"
	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/notify"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mailbox keeps the reset tokens a mailer would have sent.
type mailbox struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *mailbox) Notify(_ context.Context, ev notify.Event) error {
	if ev.Type != notify.EventPasswordResetRequested {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[ev.Email] = ev.ResetToken
	return nil
}

func (m *mailbox) token(email string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[email]
	return tok, ok
}

func forgot(r http.Handler, email string) *httptest.ResponseRecorder {
	return doRequest(r, requestParams{method: http.MethodPost, path: "/auth/forgot-password", body: map[string]string{"email": email}})
}

func reset(r http.Handler, token, password string) *httptest.ResponseRecorder {
	return doRequest(r, requestParams{method: http.MethodPost, path: "/auth/reset-password", body: map[string]string{
		"token": token, "password": password,
	}})
}

func TestForgotPassword_SameAnswerForUnknownEmail(t *testing.T) {
	box := &mailbox{tokens: map[string]string{}}
	r, _ := SetupTestServerWithNotifier(t, box)
	RegisterAndLogin(t, r, SignupCreds{Name: "Jane", Email: "jane@example.com", Password: "janepass1"})

	known := forgot(r, "jane@example.com")
	unknown := forgot(r, "ghost@example.com")

	require.Equal(t, http.StatusOK, known.Code, known.Body.String())
	require.Equal(t, http.StatusOK, unknown.Code, unknown.Body.String())
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Equal(t, "If your email is registered, you will receive a reset link shortly.", ParseAPIResp(t, known).Msg)

	_, sent := box.token("jane@example.com")
	assert.True(t, sent)
	_, sent = box.token("ghost@example.com")
	assert.False(t, sent)
}

func TestResetPassword_ChangesPasswordAndRevokesSessions(t *testing.T) {
	box := &mailbox{tokens: map[string]string{}}
	r, db := SetupTestServerWithNotifier(t, box)
	oldToken, userID := RegisterAndLogin(t, r, SignupCreds{Name: "Jane", Email: "jane@example.com", Password: "janepass1"})

	require.Equal(t, http.StatusOK, forgot(r, "Jane@Example.com").Code)
	tok, ok := box.token("jane@example.com")
	require.True(t, ok)

	rr := reset(r, tok, "freshpass99")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr2 := doRequest(r, requestParams{method: http.MethodGet, path: "/appointments/me", headers: bearer(oldToken)})
	assert.Equal(t, http.StatusUnauthorized, rr2.Code, "sessions from before the reset")
	var sessions int64
	require.NoError(t, db.Model(&model.Session{}).Where("user_id = ?", userID).Count(&sessions).Error)
	assert.Zero(t, sessions)

	rr2 = doRequest(r, requestParams{method: http.MethodPost, path: "/auth/login", body: map[string]string{
		"email": "jane@example.com", "password": "janepass1",
	}})
	assert.Equal(t, http.StatusUnauthorized, rr2.Code, "old password")
	Login(t, r, "jane@example.com", "freshpass99")

	rr = reset(r, tok, "thirdpass99")
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "token reuse")
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	box := &mailbox{tokens: map[string]string{}}
	r, db := SetupTestServerWithNotifier(t, box)
	_, userID := RegisterAndLogin(t, r, SignupCreds{Name: "Jane", Email: "jane@example.com", Password: "janepass1"})

	require.Equal(t, http.StatusOK, forgot(r, "jane@example.com").Code)
	tok, _ := box.token("jane@example.com")
	require.NoError(t, db.Model(&model.PasswordReset{}).Where("user_id = ?", userID).
		Update("expires_at", time.Now().UTC().Add(-time.Second)).Error)

	rr := reset(r, tok, "freshpass99")
	assert.Equal(t, http.StatusUnauthorized, rr.Code, rr.Body.String())
	Login(t, r, "jane@example.com", "janepass1")
}

func TestResetPassword_Validation(t *testing.T) {
	r, _ := SetupTestServer(t)

	tests := []struct {
		name string
		path string
		body map[string]string
	}{
		{"forgot without email", "/auth/forgot-password", map[string]string{}},
		{"forgot bad email", "/auth/forgot-password", map[string]string{"email": "nope"}},
		{"reset without token", "/auth/reset-password", map[string]string{"password": "longenough1"}},
		{"reset short password", "/auth/reset-password", map[string]string{"token": "abc", "password": "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(r, requestParams{method: http.MethodPost, path: tt.path, body: tt.body})
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}

	rr := reset(r, "unknown-token", "longenough1")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestResetPassword_ClearsLoginRateLimit(t *testing.T) {
	box := &mailbox{tokens: map[string]string{}}
	r, _ := SetupTestServerWithNotifier(t, box)
	RegisterAndLogin(t, r, SignupCreds{Name: "Jane", Email: "jane@example.com", Password: "janepass1"})
	require.Equal(t, http.StatusOK, forgot(r, "jane@example.com").Code)
	tok, _ := box.token("jane@example.com")

	// Other Redis calls on this path fail against the mock and are
	// tolerated; only the counter delete is asserted.
	rdb, mock := redismock.NewClientMock()
	mock.MatchExpectationsInOrder(false)
	config.SetRedisClientForTesting(rdb)
	t.Cleanup(config.ResetRedisClientForTest)
	mock.ExpectDel("ratelimit:/auth/login:192.0.2.1").SetVal(1)

	rr := reset(r, tok, "freshpass99")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
