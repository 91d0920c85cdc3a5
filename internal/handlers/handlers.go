package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"wallet/internal/models"
	"wallet/internal/money"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func valueToString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func valueToMoney(value any) string {
	return money.FormatMinor(money.ValueToInt64(value))
}

func userJSON(user models.User) map[string]any {
	return map[string]any{
		"id":            user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"full_name":     user.FullName,
		"phone":         user.Phone,
		"avatar":        user.Avatar,
		"balance":       valueToMoney(user.Balance),
		"role":          user.Role,
		"is_active":     user.IsActive,
		"last_login_at": user.LastLoginAt,
		"created_at":    user.CreatedAt,
	}
}

func paymentJSON(payment models.Payment) map[string]any {
	out := map[string]any{
		"id":          payment.ID,
		"reference":   payment.Reference,
		"user_id":     payment.UserID,
		"amount":      valueToMoney(payment.Amount),
		"method":      payment.Method,
		"description": payment.Description,
		"status":      payment.Status,
		"created_at":  payment.CreatedAt,
	}
	if payment.ProofImage != "" {
		out["proof_image"] = payment.ProofImage
	}
	if payment.AdminNote != "" {
		out["admin_note"] = payment.AdminNote
	}
	if payment.ProcessedBy != nil {
		out["processed_by"] = *payment.ProcessedBy
	}
	if payment.ProcessedAt != nil {
		out["processed_at"] = *payment.ProcessedAt
	}
	return out
}

func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

func paginationJSON(page, limit, total int) map[string]any {
	return map[string]any{
		"current": page,
		"pages":   totalPages(total, limit),
		"total":   total,
	}
}
