package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"wallet/internal/middleware"
	"wallet/internal/models"
	"wallet/internal/services"

	"github.com/go-chi/chi/v5"
)

type createPaymentRequest struct {
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	payment, err := h.service.Create(r.Context(), services.CreateRequest{
		UserID:      userID,
		AmountMinor: amountMinor,
		Method:      req.Method,
		Description: req.Description,
	})
	if err != nil {
		switch err {
		case services.ErrInvalidAmount:
			respondError(w, http.StatusBadRequest, "amount_below_minimum")
		case services.ErrInvalidMethod:
			respondError(w, http.StatusBadRequest, "invalid_method")
		default:
			respondError(w, http.StatusInternalServerError, "unable to create payment")
		}
		return
	}
	respondJSON(w, http.StatusCreated, paymentJSON(payment))
}

type depositRequest struct {
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	payment, err := h.service.Deposit(r.Context(), services.DepositRequest{
		UserID:      userID,
		AmountMinor: amountMinor,
		Method:      req.Method,
		Description: req.Description,
	})
	if err != nil {
		switch err {
		case services.ErrInvalidAmount:
			respondError(w, http.StatusBadRequest, "invalid_amount")
		case services.ErrInvalidMethod:
			respondError(w, http.StatusBadRequest, "invalid_method")
		default:
			respondError(w, http.StatusInternalServerError, "deposit failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, paymentJSON(payment))
}

func (h *Handler) MyPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 10)
	offset := (page - 1) * limit
	payments, err := h.payments.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load payments")
		return
	}
	total, err := h.payments.CountByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load payments")
		return
	}
	normalized := make([]map[string]any, 0, len(payments))
	for _, payment := range payments {
		normalized = append(normalized, paymentJSON(payment))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"payments":   normalized,
		"pagination": paginationJSON(page, limit, total),
	})
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	payment, err := h.payments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "payment not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load payment")
		return
	}
	role, _ := middleware.RoleFromContext(r.Context())
	if payment.UserID != userID && role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "access denied")
		return
	}
	respondJSON(w, http.StatusOK, paymentJSON(payment))
}

type uploadProofRequest struct {
	ProofImage string `json:"proof_image"`
}

func (h *Handler) UploadProof(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req uploadProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProofImage == "" {
		respondError(w, http.StatusBadRequest, "proof_image is required")
		return
	}
	err := h.service.AttachProof(r.Context(), chi.URLParam(r, "id"), userID, req.ProofImage)
	if err != nil {
		switch err {
		case services.ErrPaymentNotFound:
			respondError(w, http.StatusNotFound, "payment not found")
		case services.ErrNotOwner:
			respondError(w, http.StatusForbidden, "access denied")
		case services.ErrNotPending:
			respondError(w, http.StatusBadRequest, "payment already processed")
		default:
			respondError(w, http.StatusInternalServerError, "unable to upload proof")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "proof_uploaded"})
}

type processPaymentRequest struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}

func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req processPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	payment, err := h.service.Process(r.Context(), services.ProcessRequest{
		PaymentID: chi.URLParam(r, "id"),
		AdminID:   adminID,
		Status:    req.Status,
		Note:      req.AdminNote,
	})
	if err != nil {
		switch err {
		case services.ErrInvalidStatus:
			respondError(w, http.StatusBadRequest, "invalid_status")
		case services.ErrPaymentNotFound:
			respondError(w, http.StatusNotFound, "payment not found")
		case services.ErrNotPending:
			respondError(w, http.StatusBadRequest, "payment already processed")
		default:
			respondError(w, http.StatusInternalServerError, "unable to process payment")
		}
		return
	}
	respondJSON(w, http.StatusOK, paymentJSON(payment))
}
