package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"holocron/internal/domain"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(&Config{
		SupabaseURL: srv.URL,
		AnonKey:     "anon-key",
		ServiceKey:  "service-key",
	})
	return client, srv
}

func TestClientGetUser(t *testing.T) {
	client, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %q, want /auth/v1/user", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q, want bearer user token", got)
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("apikey = %q, want anon key", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "user-1",
			"email": "user@example.com",
			"user_metadata": map[string]interface{}{
				"is_admin": true,
			},
		})
	}))
	defer srv.Close()

	user, err := client.GetUser(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.ID != "user-1" || user.Email != "user@example.com" || !user.IsAdmin {
		t.Errorf("user = %+v, want user-1/user@example.com/admin", user)
	}
}

func TestClientGetUserRevokedToken(t *testing.T) {
	client, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"msg":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := client.GetUser(context.Background(), "stale-token"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("GetUser() error = %v, want ErrUnauthorized", err)
	}
}

func TestClientLogin(t *testing.T) {
	client, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("request = %q, want /auth/v1/token?grant_type=password", r.URL.String())
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req["email"] != "user@example.com" || req["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "session-token",
			"user": map[string]interface{}{
				"id":    "user-1",
				"email": "user@example.com",
			},
		})
	}))
	defer srv.Close()

	result, err := client.Login(context.Background(), "user@example.com", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.AccessToken != "session-token" || result.ID != "user-1" {
		t.Errorf("result = %+v, want session token and user-1", result)
	}

	if _, err := client.Login(context.Background(), "user@example.com", "wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Login() with bad password error = %v, want ErrUnauthorized", err)
	}
}

func TestClientRegisterUsesServiceKey(t *testing.T) {
	client, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/admin/users" {
			t.Errorf("path = %q, want /auth/v1/admin/users", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer service-key" {
			t.Errorf("Authorization = %q, want service key", got)
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req["email_confirm"] != true {
			t.Error("email_confirm missing, want immediate confirmation")
		}
		meta, _ := req["user_metadata"].(map[string]interface{})
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "new-user",
			"email":         req["email"],
			"user_metadata": meta,
		})
	}))
	defer srv.Close()

	user, err := client.Register(context.Background(), "novo@example.com", "secret123", true)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID != "new-user" || !user.IsAdmin {
		t.Errorf("user = %+v, want new-user with admin flag", user)
	}
}

func TestClientRegisterWithoutServiceKey(t *testing.T) {
	client := NewClient(&Config{SupabaseURL: "http://localhost", AnonKey: "anon-key"})

	if _, err := client.Register(context.Background(), "novo@example.com", "secret123", false); err == nil {
		t.Fatal("Register() error = nil, want missing service key error")
	}
}
