package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"wallet/internal/auth"
	"wallet/internal/middleware"
	"wallet/internal/models"
	"wallet/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	totalUsers, err := h.users.Count(ctx, "", "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	activeUsers, err := h.users.Count(ctx, "", "active")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	totalPayments, err := h.payments.CountAll(ctx, "", "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	pendingPayments, err := h.payments.CountByStatus(ctx, models.PaymentPending)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	completedPayments, err := h.payments.CountByStatus(ctx, models.PaymentCompleted)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	revenue, err := h.payments.SumCompleted(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	recentPayments, err := h.payments.Recent(ctx, 5)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	recentUsers, err := h.users.Recent(ctx, 5)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	users := make([]map[string]any, 0, len(recentUsers))
	for _, user := range recentUsers {
		users = append(users, userJSON(user))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"stats": map[string]any{
			"total_users":        totalUsers,
			"active_users":       activeUsers,
			"total_payments":     totalPayments,
			"pending_payments":   pendingPayments,
			"completed_payments": completedPayments,
			"total_revenue":      valueToMoney(revenue),
		},
		"recent_payments": normalizePaymentRows(recentPayments),
		"recent_users":    users,
	})
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	search := query.Get("search")
	status := query.Get("status")
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 10)
	offset := (page - 1) * limit
	users, err := h.users.List(r.Context(), search, status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load users")
		return
	}
	total, err := h.users.Count(r.Context(), search, status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load users")
		return
	}
	normalized := make([]map[string]any, 0, len(users))
	for _, user := range users {
		normalized = append(normalized, userJSON(user))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"users":      normalized,
		"pagination": paginationJSON(page, limit, total),
	})
}

func (h *Handler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	payments, err := h.payments.ListByUser(r.Context(), userID, 10, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user payments")
		return
	}
	normalized := make([]map[string]any, 0, len(payments))
	for _, payment := range payments {
		normalized = append(normalized, paymentJSON(payment))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user":            userJSON(user),
		"recent_payments": normalized,
	})
}

type adminUpdateUserRequest struct {
	IsActive *bool   `json:"is_active"`
	Role     *string `json:"role"`
	Balance  *string `json:"balance"`
}

func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	var req adminUpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.IsActive == nil && req.Role == nil && req.Balance == nil {
		respondError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if req.Role != nil && *req.Role != models.RoleUser && *req.Role != models.RoleAdmin {
		respondError(w, http.StatusBadRequest, "invalid role")
		return
	}
	var balanceMinor *int64
	if req.Balance != nil {
		parsed, err := parseBalanceMinor(*req.Balance)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_balance")
			return
		}
		balanceMinor = &parsed
	}
	var rows int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		updated, err := h.users.UpdateAdminFields(r.Context(), tx, targetID, req.IsActive, req.Role, balanceMinor)
		if err != nil {
			return err
		}
		rows = updated
		if rows == 0 {
			return nil
		}
		data, _ := json.Marshal(req)
		return h.audit.Log(r.Context(), tx, adminID, "update_user", "user", targetID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update user")
		return
	}
	if rows == 0 {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	user, err := h.users.GetByID(r.Context(), targetID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, userJSON(user))
}

func (h *Handler) AdminListPayments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	status := query.Get("status")
	method := query.Get("method")
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 10)
	offset := (page - 1) * limit
	rows, err := h.payments.ListAll(r.Context(), status, method, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load payments")
		return
	}
	total, err := h.payments.CountAll(r.Context(), status, method)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load payments")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"payments":   normalizePaymentRows(rows),
		"pagination": paginationJSON(page, limit, total),
	})
}

func (h *Handler) AdminGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.payments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "payment not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load payment")
		return
	}
	respondJSON(w, http.StatusOK, paymentJSON(payment))
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	rows, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func normalizePaymentRows(rows []map[string]any) []map[string]any {
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, map[string]any{
			"id":                valueToString(row["id"]),
			"reference":         valueToString(row["reference"]),
			"user_id":           valueToString(row["user_id"]),
			"username":          valueToString(row["username"]),
			"email":             valueToString(row["email"]),
			"full_name":         valueToString(row["full_name"]),
			"amount":            valueToMoney(row["amount"]),
			"method":            valueToString(row["method"]),
			"description":       valueToString(row["description"]),
			"status":            valueToString(row["status"]),
			"admin_note":        valueToString(row["admin_note"]),
			"processed_by_name": valueToString(row["processed_by_name"]),
			"processed_at":      row["processed_at"],
			"created_at":        row["created_at"],
		})
	}
	return normalized
}

func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
