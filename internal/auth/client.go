// auth/client.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"holocron/internal/domain"
)

// Client обращается к Auth API провайдера: регистрация через admin-эндпоинт
// (требует service-ключ), вход по паролю, выход и чтение текущего пользователя.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(cfg *Config) *Client {
	return &Client{
		baseURL:    cfg.SupabaseURL + "/auth/v1",
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// UserInfo представляет информацию о пользователе в нашем приложении
type UserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// LoginResult содержит пользователя и access-токен сессии.
type LoginResult struct {
	UserInfo
	AccessToken string `json:"access_token"`
}

type supabaseUser struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

func (u *supabaseUser) toUserInfo() UserInfo {
	return UserInfo{
		ID:      u.ID,
		Email:   u.Email,
		IsAdmin: u.UserMetadata.IsAdmin,
	}
}

// Register создает пользователя через Admin API: email подтверждается сразу,
// is_admin сохраняется в user_metadata.
func (c *Client) Register(ctx context.Context, email, password string, isAdmin bool) (*UserInfo, error) {
	if c.serviceKey == "" {
		return nil, fmt.Errorf("service key is required for registration")
	}

	payload := map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": map[string]interface{}{
			"is_admin": isAdmin,
		},
	}

	var user supabaseUser
	err := c.do(ctx, http.MethodPost, "/admin/users", c.serviceKey, payload, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	info := user.toUserInfo()
	return &info, nil
}

// Login выполняет вход по паролю и возвращает пользователя с access-токеном.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp struct {
		AccessToken string       `json:"access_token"`
		User        supabaseUser `json:"user"`
	}

	err := c.do(ctx, http.MethodPost, "/token?grant_type=password", c.anonKey, payload, &resp)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	return &LoginResult{
		UserInfo:    resp.User.toUserInfo(),
		AccessToken: resp.AccessToken,
	}, nil
}

// Logout инвалидирует сессию токена у провайдера.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	if err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// GetUser возвращает пользователя, которому принадлежит access-токен.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*UserInfo, error) {
	var user supabaseUser
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", domain.ErrUnauthorized)
	}

	info := user.toUserInfo()
	return &info, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth provider returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
