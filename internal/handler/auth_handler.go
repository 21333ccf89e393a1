package handler

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"holocron/internal/auth"
	"holocron/internal/navigation"
)

const minPasswordLength = 6

type AuthHandler struct {
	authClient *auth.Client
	panels     *navigation.Store
}

func NewAuthHandler(authClient *auth.Client, panels *navigation.Store) *AuthHandler {
	return &AuthHandler{
		authClient: authClient,
		panels:     panels,
	}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	IsAdmin         bool   `json:"is_admin"`
}

func (r registerRequest) validate() error {
	return validation.Errors{
		"email":    validation.Validate(r.Email, validation.Required, is.Email),
		"password": validation.Validate(r.Password, validation.Required, validation.Length(minPasswordLength, 0)),
	}.Filter()
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Локальная проверка до сетевого вызова: формат email, длина пароля,
	// совпадение паролей
	if err := req.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Password != req.ConfirmPassword {
		http.Error(w, "Passwords do not match", http.StatusBadRequest)
		return
	}

	user, err := h.authClient.Register(r.Context(), req.Email, req.Password, req.IsAdmin)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	result, err := h.authClient.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Logout инвалидирует токен у провайдера и сбрасывает панели пользователя.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.authClient.Logout(r.Context(), principal.AccessToken); err != nil {
		writeError(w, err)
		return
	}

	h.panels.Drop(principal.ID)
	w.WriteHeader(http.StatusOK)
}

// Me возвращает текущего пользователя по данным провайдера, а не из токена:
// отозванная сессия отвечает 401 ещё до истечения срока токена.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.authClient.GetUser(r.Context(), principal.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
