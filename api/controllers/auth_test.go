package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiquest/poiquest-backend/api/middleware"
	"github.com/poiquest/poiquest-backend/internal/auth"
	"github.com/poiquest/poiquest-backend/internal/users"
	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
)

type stubRegisterService struct {
	user *users.UserDTO
	err  error
}

func (s stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return s.user, s.err
}

type stubAuthService struct {
	loginResp *auth.LoginResponse
	pair      *auth.TokenPair
	user      *users.UserDTO
	err       error

	logoutUserID int64
	logoutToken  string
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.loginResp, s.err
}

func (s *stubAuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	return s.pair, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	s.logoutUserID = userID
	s.logoutToken = refreshToken
	return s.err
}

func (s *stubAuthService) InvalidateAllSessions(ctx context.Context, userID int64) error {
	s.logoutUserID = userID
	return s.err
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID int64, req auth.ChangePasswordRequest) error {
	return s.err
}

func (s *stubAuthService) GetCurrentUser(ctx context.Context, userID int64) (*users.UserDTO, error) {
	return s.user, s.err
}

func (s *stubAuthService) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	return nil, s.err
}

func (s *stubAuthService) VerifyAccess(ctx context.Context, userID int64, tokenVersion int) error {
	return s.err
}

func authedRequest(method, target string, body []byte, userID int64) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithPrincipal(req.Context(), userID, "user@example.com", []string{"user"}))
}

func TestAuthRegisterSuccess(t *testing.T) {
	user := &users.UserDTO{ID: 1, Email: "explorer@example.com", Status: enums.UserStatusActive, Roles: []string{"user"}}
	handler := AuthRegister(stubRegisterService{user: user}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte(`{"email":"explorer@example.com","password":"Secret#123","display_name":"Explorer"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Data *users.UserDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data == nil || envelope.Data.Email != user.Email {
		t.Fatalf("expected user in payload got %+v", envelope.Data)
	}
}

func TestAuthRegisterInvalidPayload(t *testing.T) {
	handler := AuthRegister(stubRegisterService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte(`{"password":"short"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginReturnsTokenPair(t *testing.T) {
	svc := &stubAuthService{loginResp: &auth.LoginResponse{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		User:         &users.UserDTO{ID: 1, Email: "explorer@example.com"},
	}}
	handler := AuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"email":"explorer@example.com","password":"Secret#123"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access-token" || envelope.Data.RefreshToken != "refresh-token" {
		t.Fatalf("unexpected token pair %+v", envelope.Data)
	}
}

func TestAuthLoginPropagatesCredentialError(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeInvalidCredentials, "invalid credentials")}
	handler := AuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"email":"explorer@example.com","password":"wrong-pass"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRefreshReturnsNewAccessToken(t *testing.T) {
	svc := &stubAuthService{pair: &auth.TokenPair{AccessToken: "new-access", RefreshToken: "same-refresh"}}
	handler := AuthRefresh(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader([]byte(`{"refresh_token":"same-refresh"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAuthLogoutRequiresPrincipal(t *testing.T) {
	handler := AuthLogout(&stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", bytes.NewReader([]byte(`{"refresh_token":"refresh-token"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLogoutRevokesPresentedToken(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogout(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/auth/logout", []byte(`{"refresh_token":"refresh-token"}`), 42)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if svc.logoutUserID != 42 || svc.logoutToken != "refresh-token" {
		t.Fatalf("service received user %d token %q", svc.logoutUserID, svc.logoutToken)
	}
}

func TestAuthLogoutAll(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogoutAll(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/auth/logout-all", nil, 42)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if svc.logoutUserID != 42 {
		t.Fatalf("expected invalidation for user 42 got %d", svc.logoutUserID)
	}
}

func TestAuthChangePasswordValidatesBody(t *testing.T) {
	handler := AuthChangePassword(&stubAuthService{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/auth/change-password", []byte(`{"old_password":"Secret#123","new_password":"short"}`), 42)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthMeReturnsCurrentUser(t *testing.T) {
	svc := &stubAuthService{user: &users.UserDTO{ID: 42, Email: "explorer@example.com"}}
	handler := AuthMe(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/auth/me", nil, 42)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data *users.UserDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data == nil || envelope.Data.ID != 42 {
		t.Fatalf("expected user 42 got %+v", envelope.Data)
	}
}
