package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/classifieds-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAccountSvc struct{ mock.Mock }

func (m *mockAccountSvc) Signup(ctx context.Context, req domain.SignupRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAccountSvc) Verify(ctx context.Context, email, code string) (bool, error) {
	args := m.Called(ctx, email, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccountSvc) Profile(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccountSvc) UpdateAvatar(ctx context.Context, accountID, filename string, r io.Reader) (*domain.Account, error) {
	args := m.Called(ctx, accountID, filename, r)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, req domain.LoginRequest) (string, *domain.Account, error) {
	args := m.Called(ctx, req)
	if a, _ := args.Get(1).(*domain.Account); a != nil {
		return args.String(0), a, args.Error(2)
	}
	return args.String(0), nil, args.Error(2)
}

// --- helpers ---

const testCookie = "mycookie"

func newHandler(accounts *mockAccountSvc, sessions *mockSessionSvc) *UserHandler {
	return NewUserHandler(accounts, sessions, testCookie, 15*time.Minute)
}

func doJSON(t *testing.T, h http.HandlerFunc, method string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, "/", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeStatus(t *testing.T, rr *httptest.ResponseRecorder) StatusEnvelope {
	t.Helper()
	var env StatusEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	var last *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == testCookie && c.MaxAge > 0 {
			last = c
		}
	}
	return last
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	accounts := new(mockAccountSvc)
	h := newHandler(accounts, new(mockSessionSvc))

	accounts.On("Signup", mock.Anything, mock.AnythingOfType("domain.SignupRequest")).Return(nil)

	rr := doJSON(t, h.Register, http.MethodPost, map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeStatus(t, rr)
	assert.True(t, env.Success)
	assert.Equal(t, msgCheckEmail, env.Msg)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	accounts := new(mockAccountSvc)
	h := newHandler(accounts, new(mockSessionSvc))

	accounts.On("Signup", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	rr := doJSON(t, h.Register, http.MethodPost, map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeStatus(t, rr)
	assert.False(t, env.Success)
	assert.Equal(t, msgUserExists, env.Msg)
}

func TestRegister_ValidationErrors(t *testing.T) {
	accounts := new(mockAccountSvc)
	h := newHandler(accounts, new(mockSessionSvc))

	rr := doJSON(t, h.Register, http.MethodPost, map[string]string{
		"name": "Ada", "email": "not-an-email", "password": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var env ValidationEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	params := make([]string, 0, len(env.Errors))
	for _, fe := range env.Errors {
		params = append(params, fe.Param)
	}
	assert.Contains(t, params, "email")
	assert.Contains(t, params, "password")
	accounts.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
}

// --- Verify ---

func TestVerify_Success(t *testing.T) {
	accounts := new(mockAccountSvc)
	h := newHandler(accounts, new(mockSessionSvc))

	accounts.On("Verify", mock.Anything, "ada@example.com", "654321").Return(false, nil)

	rr := doJSON(t, h.Verify, http.MethodPut, map[string]string{
		"email": "ada@example.com", "code": "654321",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeStatus(t, rr)
	assert.True(t, env.Success)
	assert.Equal(t, msgVerified, env.Msg)
}

func TestVerify_AlreadyVerified(t *testing.T) {
	accounts := new(mockAccountSvc)
	h := newHandler(accounts, new(mockSessionSvc))

	accounts.On("Verify", mock.Anything, "ada@example.com", "654321").Return(true, nil)

	rr := doJSON(t, h.Verify, http.MethodPut, map[string]string{
		"email": "ada@example.com", "code": "654321",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeStatus(t, rr)
	assert.True(t, env.Success)
	assert.Equal(t, msgAlreadyVerified, env.Msg)
}

func TestVerify_InvalidCode(t *testing.T) {
	accounts := new(mockAccountSvc)
	h := newHandler(accounts, new(mockSessionSvc))

	accounts.On("Verify", mock.Anything, "ada@example.com", "111111").Return(false, domain.ErrUnauthorized)

	rr := doJSON(t, h.Verify, http.MethodPut, map[string]string{
		"email": "ada@example.com", "code": "111111",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env := decodeStatus(t, rr)
	assert.False(t, env.Success)
	assert.Equal(t, msgInvalidCode, env.Msg)
}

func TestVerify_MissingFields(t *testing.T) {
	accounts := new(mockAccountSvc)
	h := newHandler(accounts, new(mockSessionSvc))

	rr := doJSON(t, h.Verify, http.MethodPut, map[string]string{"code": "654321"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgProvideEmail, decodeStatus(t, rr).Msg)

	rr = doJSON(t, h.Verify, http.MethodPut, map[string]string{"email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgProvideCode, decodeStatus(t, rr).Msg)

	accounts.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_UnknownEmail(t *testing.T) {
	accounts := new(mockAccountSvc)
	h := newHandler(accounts, new(mockSessionSvc))

	accounts.On("Verify", mock.Anything, "ghost@example.com", "654321").Return(false, domain.ErrNotFound)

	rr := doJSON(t, h.Verify, http.MethodPut, map[string]string{
		"email": "ghost@example.com", "code": "654321",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeStatus(t, rr)
	assert.False(t, env.Success)
	assert.Equal(t, msgUserNotFound, env.Msg)
}

// --- Login ---

func TestLogin_Success_SetsCookie(t *testing.T) {
	sessions := new(mockSessionSvc)
	h := newHandler(new(mockAccountSvc), sessions)

	sessions.On("Login", mock.Anything, mock.AnythingOfType("domain.LoginRequest")).
		Return("signed-token", &domain.Account{AccountID: "acc-1"}, nil)

	rr := doJSON(t, h.Login, http.MethodPost, map[string]string{
		"email": "ada@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeStatus(t, rr)
	assert.True(t, env.Success)
	assert.Equal(t, msgLoginSuccess, env.Msg)

	c := sessionCookie(rr)
	require.NotNil(t, c, "session cookie should be set")
	assert.Equal(t, "signed-token", c.Value)
	assert.Equal(t, int((15 * time.Minute).Seconds()), c.MaxAge)
	assert.True(t, c.HttpOnly)
}

func TestLogin_SupersedesPriorCookie(t *testing.T) {
	sessions := new(mockSessionSvc)
	h := newHandler(new(mockAccountSvc), sessions)

	sessions.On("Login", mock.Anything, mock.Anything).
		Return("fresh-token", &domain.Account{AccountID: "acc-1"}, nil)

	rr := doJSON(t, h.Login, http.MethodPost, map[string]string{
		"email": "ada@example.com", "password": "hunter22",
	})

	// The clearing cookie must come before the new one; the final value in
	// header order is the fresh token.
	cookies := rr.Result().Cookies()
	var names []string
	for _, c := range cookies {
		if c.Name == testCookie {
			names = append(names, c.Value)
		}
	}
	require.Len(t, names, 2)
	assert.Equal(t, "", names[0])
	assert.Equal(t, "fresh-token", names[1])
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name    string
		svcErr  error
		wantMsg string
	}{
		{"unknown email", domain.ErrNotFound, msgUserNotExists},
		{"not verified", domain.ErrForbidden, msgNotVerified},
		{"wrong password", domain.ErrUnauthorized, msgWrongPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sessions := new(mockSessionSvc)
			h := newHandler(new(mockAccountSvc), sessions)

			sessions.On("Login", mock.Anything, mock.Anything).Return("", nil, tc.svcErr)

			rr := doJSON(t, h.Login, http.MethodPost, map[string]string{
				"email": "ada@example.com", "password": "hunter22",
			})
			assert.Equal(t, http.StatusOK, rr.Code)
			env := decodeStatus(t, rr)
			assert.False(t, env.Success)
			assert.Equal(t, tc.wantMsg, env.Msg)
			assert.Nil(t, sessionCookie(rr), "no session cookie on failed login")
		})
	}
}

// --- Logout ---

func TestLogout_ClearsCookie(t *testing.T) {
	h := newHandler(new(mockAccountSvc), new(mockSessionSvc))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeStatus(t, rr)
	assert.True(t, env.Success)
	assert.Equal(t, msgLoggedOut, env.Msg)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}
