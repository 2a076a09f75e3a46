package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"idol-platform/internal/config"
	"idol-platform/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAccountSource struct {
	users map[uuid.UUID]*model.User
	err   error
}

func (f *fakeAccountSource) GetUserByID(_ context.Context, userID uuid.UUID) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[userID], nil
}

func newTestGate(t *testing.T, accounts *fakeAccountSource) (*Gate, *TokenCodec) {
	t.Helper()
	codec := NewTokenCodec(&config.Config{
		JWT: config.JWTConfig{Secret: "gate-test-secret", TokenTTL: time.Hour},
	})
	return NewGate(codec, accounts, zap.NewNop()), codec
}

func activeUser(userID uuid.UUID) *model.User {
	return &model.User{
		UserID:   userID,
		Username: "alice",
		Status:   model.StatusActive,
	}
}

// echoHandler records whether the request made it through the gate.
func echoHandler(reached *bool, sawIdentity *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		if _, ok := IdentityFromContext(r.Context()); ok {
			*sawIdentity = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func doGated(gate *Gate, method, path, bearer string) (*httptest.ResponseRecorder, bool, bool) {
	var reached, sawIdentity bool
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	gate.Middleware(echoHandler(&reached, &sawIdentity)).ServeHTTP(rec, req)
	return rec, reached, sawIdentity
}

func rejectionBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error
}

func TestGateBypassesOpenRoutes(t *testing.T) {
	gate, _ := newTestGate(t, &fakeAccountSource{})

	for _, path := range []string{"/api/auth/login", "/api/auth/register"} {
		rec, reached, sawIdentity := doGated(gate, http.MethodPost, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.True(t, reached, path)
		assert.False(t, sawIdentity, path)
	}
}

func TestGateRejectsMissingToken(t *testing.T) {
	gate, _ := newTestGate(t, &fakeAccountSource{})

	rec, reached, _ := doGated(gate, http.MethodGet, "/api/users", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
	assert.Equal(t, "Authentication required", rejectionBody(t, rec))
}

func TestGateRejectsInvalidToken(t *testing.T) {
	gate, _ := newTestGate(t, &fakeAccountSource{})

	rec, reached, _ := doGated(gate, http.MethodGet, "/api/users", "not-a-valid-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
	assert.Equal(t, "Invalid or expired token", rejectionBody(t, rec))
}

func TestGateRejectsExpiredToken(t *testing.T) {
	userID := uuid.New()
	accounts := &fakeAccountSource{users: map[uuid.UUID]*model.User{userID: activeUser(userID)}}
	gate, _ := newTestGate(t, accounts)

	expiredCodec := NewTokenCodec(&config.Config{
		JWT: config.JWTConfig{Secret: "gate-test-secret", TokenTTL: -time.Minute},
	})
	token, err := expiredCodec.Issue(userID, false, false)
	require.NoError(t, err)

	rec, reached, _ := doGated(gate, http.MethodGet, "/api/users", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestGateRejectsUnknownAccount(t *testing.T) {
	gate, codec := newTestGate(t, &fakeAccountSource{users: map[uuid.UUID]*model.User{}})

	token, err := codec.Issue(uuid.New(), false, false)
	require.NoError(t, err)

	rec, reached, _ := doGated(gate, http.MethodGet, "/api/users", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
	assert.Equal(t, "Invalid or expired token", rejectionBody(t, rec))
}

func TestGateRejectsSuspendedAccount(t *testing.T) {
	userID := uuid.New()
	suspended := activeUser(userID)
	suspended.Status = model.StatusSuspended
	gate, codec := newTestGate(t, &fakeAccountSource{users: map[uuid.UUID]*model.User{userID: suspended}})

	// Even a fully verified token stops working once the account is
	// suspended in the store.
	token, err := codec.Issue(userID, true, true)
	require.NoError(t, err)

	rec, reached, _ := doGated(gate, http.MethodGet, "/api/users", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
	assert.Equal(t, "Account suspended", rejectionBody(t, rec))
}

func TestGateReportsStoreFailure(t *testing.T) {
	gate, codec := newTestGate(t, &fakeAccountSource{err: errors.New("store down")})

	token, err := codec.Issue(uuid.New(), false, false)
	require.NoError(t, err)

	rec, reached, _ := doGated(gate, http.MethodGet, "/api/users", token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, reached)
	assert.Equal(t, "Authorization check failed", rejectionBody(t, rec))
}

func TestGateConfinesInterimToken(t *testing.T) {
	userID := uuid.New()
	gate, codec := newTestGate(t, &fakeAccountSource{users: map[uuid.UUID]*model.User{userID: activeUser(userID)}})

	interim, err := codec.Issue(userID, true, false)
	require.NoError(t, err)

	rec, reached, _ := doGated(gate, http.MethodGet, "/api/users", interim)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
	assert.Equal(t, "Two-factor authentication required", rejectionBody(t, rec))

	// The verify endpoint is the one door an interim token opens.
	rec, reached, sawIdentity := doGated(gate, http.MethodPost, "/api/auth/verify-2fa", interim)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.True(t, sawIdentity)
}

func TestGateAdmitsVerifiedToken(t *testing.T) {
	userID := uuid.New()
	gate, codec := newTestGate(t, &fakeAccountSource{users: map[uuid.UUID]*model.User{userID: activeUser(userID)}})

	token, err := codec.Issue(userID, true, true)
	require.NoError(t, err)

	rec, reached, sawIdentity := doGated(gate, http.MethodGet, "/api/users", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.True(t, sawIdentity)
}

func TestGateAttachesIdentityAndHeader(t *testing.T) {
	userID := uuid.New()
	gate, codec := newTestGate(t, &fakeAccountSource{users: map[uuid.UUID]*model.User{userID: activeUser(userID)}})

	token, err := codec.Issue(userID, false, false)
	require.NoError(t, err)

	var gotIdentity *Identity
	var gotHeader string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity, _ = IdentityFromContext(r.Context())
		gotHeader = r.Header.Get(HeaderUserID)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	gate.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, gotIdentity)
	assert.Equal(t, userID, gotIdentity.UserID)
	assert.Equal(t, userID.String(), gotIdentity.Claims.UserID)
	assert.Equal(t, userID.String(), gotHeader)
}
