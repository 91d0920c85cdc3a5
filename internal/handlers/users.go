package handlers

import (
	"encoding/json"
	"net/http"

	"wallet/internal/auth"
	"wallet/internal/middleware"
	"wallet/internal/validator"

	"github.com/jmoiron/sqlx"
)

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Avatar   *string `json:"avatar"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.FullName == nil && req.Phone == nil && req.Avatar == nil {
		respondError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if req.FullName != nil {
		if err := validator.ValidateFullName(*req.FullName); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.users.UpdateProfile(r.Context(), tx, userID, req.FullName, req.Phone, req.Avatar)
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update profile")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, userJSON(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidatePassword(req.NewPassword); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		respondError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}
	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to secure password")
		return
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.UpdatePassword(r.Context(), tx, userID, passwordHash); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, userID, "change_password", "user", userID, "{}")
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to change password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load balance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"balance":       valueToMoney(user.Balance),
		"balance_minor": user.Balance,
	})
}
