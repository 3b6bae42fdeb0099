package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// minPasswordLen is enforced at registration; existing accounts are never
// re-checked.
const minPasswordLen = 8

// maxBodyBytes bounds credential payloads; nothing legitimate comes close.
const maxBodyBytes = 1 << 20

// Handler exposes the account endpoints in front of the editor. Both
// return a signed token that the project routes and websocket sessions
// authenticate with.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var c credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&c); err != nil {
		return credentials{}, err
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c, nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if creds.Email == "" || creds.Password == "" || creds.DisplayName == "" {
		respondError(w, http.StatusBadRequest, "email, password, and displayName are required")
		return
	}
	if len(creds.Password) < minPasswordLen {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
		return
	}

	res, err := h.service.Register(r.Context(), creds.Email, creds.Password, creds.DisplayName)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		slog.Error("registering account", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond(w, http.StatusCreated, res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := h.service.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.Error("logging in", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond(w, http.StatusOK, res)
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("encoding auth response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"error": msg})
}
