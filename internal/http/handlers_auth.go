package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bendahara/internal/auth"
	"bendahara/internal/core"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format permintaan tidak valid")
		return
	}

	id, err := s.auth.Register(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusConflict, "Email sudah terdaftar")
		case errors.Is(err, auth.ErrInvalidEmail):
			writeError(w, http.StatusUnprocessableEntity, "Email tidak valid")
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusUnprocessableEntity, "Kata sandi minimal 6 karakter")
		default:
			slog.ErrorContext(r.Context(), "Register failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Pendaftaran gagal. Silakan coba lagi.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"uid":   id.UID,
		"email": id.Email,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format permintaan tidak valid")
		return
	}

	id, token, err := s.auth.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		// Credential failures collapse into one message so the response
		// does not reveal whether the email exists.
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Email atau kata sandi salah")
			return
		}
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Gagal masuk. Silakan coba lagi.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"uid":   id.UID,
		"email": id.Email,
	})
}

// handleCategories returns the suggested category lists for both types.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if _, ok := s.identity(w, r); !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{
		"income":  core.SuggestedCategories(core.Income),
		"expense": core.SuggestedCategories(core.Expense),
	})
}
