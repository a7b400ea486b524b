package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vaultpass/securevault-go/internal/model"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// API talks to the SecureVault HTTP API. It only ever sends ciphertext.
type API struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewAPI creates a client for the server at baseURL.
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken sets the bearer token sent with authenticated calls.
func (a *API) SetToken(token string) { a.token = token }

func (a *API) Token() string { return a.token }

func (a *API) Signup(ctx context.Context, email, password string) (model.SignupResponse, error) {
	var resp model.SignupResponse
	err := a.do(ctx, http.MethodPost, "/api/v1/auth/signup", model.SignupRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return model.SignupResponse{}, err
	}
	a.token = resp.Token
	return resp, nil
}

// Login performs one login attempt. When the account needs a one-time code
// and otpCode is empty, the result has RequiresTwoFactor set and no token.
func (a *API) Login(ctx context.Context, email, password, otpCode string) (model.LoginResponse, error) {
	var resp model.LoginResponse
	err := a.do(ctx, http.MethodPost, "/api/v1/auth/login", model.LoginRequest{Email: email, Password: password, OTPCode: otpCode}, &resp)
	if err != nil {
		return model.LoginResponse{}, err
	}
	if resp.Token != "" {
		a.token = resp.Token
	}
	return resp, nil
}

func (a *API) Me(ctx context.Context) (model.UserResponse, error) {
	var resp model.UserResponse
	err := a.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &resp)
	return resp, err
}

func (a *API) ListRecords(ctx context.Context) ([]model.VaultRecordResponse, error) {
	var resp []model.VaultRecordResponse
	err := a.do(ctx, http.MethodGet, "/api/v1/vault", nil, &resp)
	return resp, err
}

func (a *API) CreateRecord(ctx context.Context, ciphertext, iv string) (model.VaultRecordResponse, error) {
	var resp model.VaultRecordResponse
	err := a.do(ctx, http.MethodPost, "/api/v1/vault", model.VaultRecordRequest{Ciphertext: ciphertext, IV: iv}, &resp)
	return resp, err
}

func (a *API) UpdateRecord(ctx context.Context, id, ciphertext, iv string) (model.VaultRecordResponse, error) {
	var resp model.VaultRecordResponse
	err := a.do(ctx, http.MethodPut, "/api/v1/vault/"+url.PathEscape(id), model.VaultRecordRequest{Ciphertext: ciphertext, IV: iv}, &resp)
	return resp, err
}

func (a *API) DeleteRecord(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/v1/vault/"+url.PathEscape(id), nil, nil)
}

func (a *API) Generate(ctx context.Context, req model.GenerateRequest) (model.GenerateResponse, error) {
	var resp model.GenerateResponse
	err := a.do(ctx, http.MethodPost, "/api/v1/generate", req, &resp)
	return resp, err
}

func (a *API) TwoFactorStatus(ctx context.Context) (model.TwoFactorStatus, error) {
	var resp model.TwoFactorStatus
	err := a.do(ctx, http.MethodGet, "/api/v1/2fa/status", nil, &resp)
	return resp, err
}

func (a *API) TwoFactorSetup(ctx context.Context) (model.TwoFactorSetup, error) {
	var resp model.TwoFactorSetup
	err := a.do(ctx, http.MethodPost, "/api/v1/2fa/setup", nil, &resp)
	return resp, err
}

func (a *API) TwoFactorConfirm(ctx context.Context, code string) error {
	return a.do(ctx, http.MethodPost, "/api/v1/2fa/verify", model.ConfirmTwoFactorRequest{Code: code}, nil)
}

func (a *API) TwoFactorDisable(ctx context.Context, password string) error {
	return a.do(ctx, http.MethodPost, "/api/v1/2fa/disable", model.DisableTwoFactorRequest{Password: password}, nil)
}

// do sends body as JSON and decodes a 2xx response into out when non-nil.
func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	slog.Debug("securevault API call", "method", method, "path", path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: marshal: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s %s: new request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
