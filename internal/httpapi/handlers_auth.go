package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/uestliguci/LifestyleCalculator/internal/auth"
	"github.com/uestliguci/LifestyleCalculator/internal/storage"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.authn.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmptyUsername), errors.Is(err, auth.ErrWeakPassword):
			writeClientError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrUserExists):
			writeClientError(w, http.StatusConflict, "Username is already taken")
		default:
			writeError(w, r, err)
		}
		return
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", user.ID, "username", user.Username)
	writeSuccess(w, http.StatusCreated, map[string]any{
		"userId":   user.ID,
		"username": user.Username,
		"token":    token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.authn.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"userId":   user.ID,
		"username": user.Username,
		"token":    token,
	})
}
