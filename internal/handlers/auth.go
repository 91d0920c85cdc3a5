package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"wallet/internal/auth"
	"wallet/internal/middleware"
	"wallet/internal/models"
	"wallet/internal/store"
	"wallet/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateUsername(req.Username); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateFullName(req.FullName); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to secure password")
		return
	}
	userID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.Create(r.Context(), tx, store.UserInput{
			ID:           userID,
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: passwordHash,
			FullName:     req.FullName,
			Phone:        req.Phone,
			Role:         models.RoleUser,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"user_id":    userID,
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		return h.audit.Log(r.Context(), tx, userID, "register", "user", userID, string(data))
	})
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			respondError(w, http.StatusConflict, "username or email already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, userID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":        userID,
			"username":  req.Username,
			"email":     req.Email,
			"full_name": req.FullName,
			"balance":   valueToMoney(int64(0)),
			"role":      models.RoleUser,
		},
	})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (req loginRequest) identifier() string {
	if req.Identifier != "" {
		return req.Identifier
	}
	if req.Username != "" {
		return req.Username
	}
	return req.Email
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	identifier := req.identifier()
	if identifier == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "identifier and password are required")
		return
	}
	user, err := h.users.GetByIdentifier(r.Context(), identifier)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.IsActive {
		respondError(w, http.StatusForbidden, "account disabled")
		return
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.TouchLastLogin(r.Context(), tx, user.ID); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"user_id":    user.ID,
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		return h.audit.Log(r.Context(), tx, user.ID, "login", "user", user.ID, string(data))
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userJSON(user),
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, userJSON(user))
}
