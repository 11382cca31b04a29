package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/server/auth"
	"github.com/luminary-catalog/luminary/internal/server/models"
	"github.com/luminary-catalog/luminary/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

func newTokens() *auth.TokenService {
	return auth.NewTokenService([]byte(testSecret), time.Hour)
}

// stubAccounts records calls and returns canned results.
type stubAccounts struct {
	mu    sync.Mutex
	calls []string

	result  *services.AuthResult
	account *models.Account
	err     error

	gotUpdate services.ProfileUpdate
	gotID     string
}

func (s *stubAccounts) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *stubAccounts) Signup(_ context.Context, _, _, _ string) (*services.AuthResult, error) {
	s.record("Signup")
	return s.result, s.err
}

func (s *stubAccounts) Login(_ context.Context, _, _ string) (*services.AuthResult, error) {
	s.record("Login")
	return s.result, s.err
}

func (s *stubAccounts) Profile(_ context.Context, id string) (*models.Account, error) {
	s.record("Profile")
	s.gotID = id
	return s.account, s.err
}

func (s *stubAccounts) UpdateProfile(_ context.Context, id string, upd services.ProfileUpdate) (*models.Account, error) {
	s.record("UpdateProfile")
	s.gotID = id
	s.gotUpdate = upd
	return s.account, s.err
}

type stubGenres struct {
	list  []models.Genre
	genre *models.Genre
	err   error

	gotID     string
	gotName   string
	gotUpdate services.GenreUpdate
}

func (s *stubGenres) List(context.Context) ([]models.Genre, error) { return s.list, s.err }

func (s *stubGenres) Get(_ context.Context, id string) (*models.Genre, error) {
	s.gotID = id
	return s.genre, s.err
}

func (s *stubGenres) Create(_ context.Context, name, _ string) (*models.Genre, error) {
	s.gotName = name
	return s.genre, s.err
}

func (s *stubGenres) Update(_ context.Context, id string, upd services.GenreUpdate) (*models.Genre, error) {
	s.gotID = id
	s.gotUpdate = upd
	return s.genre, s.err
}

func (s *stubGenres) Delete(_ context.Context, id string) error {
	s.gotID = id
	return s.err
}

// countingVerifier counts Verify calls and delegates to next (or fails).
type countingVerifier struct {
	mu    sync.Mutex
	calls int
	next  auth.TokenVerifier
}

func (v *countingVerifier) Verify(token string) (*auth.Identity, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	if v.next == nil {
		return nil, common.ErrInvalidToken
	}
	return v.next.Verify(token)
}

func (v *countingVerifier) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func testRouter(deps Dependencies) *gin.Engine {
	if deps.Accounts == nil {
		deps.Accounts = &stubAccounts{}
	}
	if deps.Genres == nil {
		deps.Genres = &stubGenres{}
	}
	if deps.Verifier == nil {
		deps.Verifier = newTokens()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.NewRegistry()
	}
	return NewRouter(deps)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), "body: %s", w.Body.String())
	return m
}

func bearer(token string) map[string]string {
	return map[string]string{common.AuthorizationHeaderName: "Bearer " + token}
}
