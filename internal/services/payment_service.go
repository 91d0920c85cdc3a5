package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet/internal/db"
	"wallet/internal/models"
	"wallet/internal/money"
	"wallet/internal/store"
	"wallet/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidAmount   = errors.New("amount below minimum")
	ErrInvalidMethod   = errors.New("invalid payment method")
	ErrInvalidStatus   = errors.New("invalid target status")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrNotOwner        = errors.New("payment does not belong to user")
	ErrNotPending      = errors.New("payment is not pending")
	ErrUserNotFound    = errors.New("user not found")
)

type UserStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.User, error)
	AdjustBalance(ctx context.Context, tx store.Execer, userID string, delta int64) (int64, error)
}

type PaymentStore interface {
	Create(ctx context.Context, tx store.Execer, input store.PaymentInput) error
	GetByID(ctx context.Context, paymentID string) (models.Payment, error)
	GetForUpdate(ctx context.Context, tx store.Getter, paymentID string) (models.Payment, error)
	UpdateProof(ctx context.Context, tx store.Execer, paymentID, proofImage string) error
	MarkProcessed(ctx context.Context, tx store.Execer, paymentID, status, adminID, note string) (int64, error)
	MarkCompleted(ctx context.Context, tx store.Execer, paymentID string) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

// PaymentService owns the payment lifecycle: pending is the only mutable
// state, the three terminal states are final, and a balance credit happens
// exactly once, inside the same transaction as the completing transition.
type PaymentService struct {
	txRunner  db.TxRunner
	users     UserStore
	payments  PaymentStore
	audit     AuditStore
	hub       BalanceHub
	minAmount int64
}

func NewPaymentService(txRunner db.TxRunner, users UserStore, payments PaymentStore, audit AuditStore, hub BalanceHub, minAmount int64) *PaymentService {
	return &PaymentService{
		txRunner:  txRunner,
		users:     users,
		payments:  payments,
		audit:     audit,
		hub:       hub,
		minAmount: minAmount,
	}
}

type CreateRequest struct {
	UserID      string
	AmountMinor int64
	Method      string
	Description string
}

func (s *PaymentService) Create(ctx context.Context, req CreateRequest) (models.Payment, error) {
	if req.AmountMinor < s.minAmount {
		return models.Payment{}, ErrInvalidAmount
	}
	if !models.IsValidMethod(req.Method) {
		return models.Payment{}, ErrInvalidMethod
	}
	description := req.Description
	if description == "" {
		description = "Account deposit"
	}
	payment := models.Payment{
		ID:          uuid.NewString(),
		Reference:   newReference(),
		UserID:      req.UserID,
		Amount:      req.AmountMinor,
		Method:      req.Method,
		Description: description,
		Status:      models.PaymentPending,
		CreatedAt:   time.Now().UTC(),
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.payments.Create(ctx, tx, store.PaymentInput{
			ID:          payment.ID,
			Reference:   payment.Reference,
			UserID:      payment.UserID,
			Amount:      payment.Amount,
			Method:      payment.Method,
			Description: payment.Description,
			Status:      payment.Status,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"reference": payment.Reference,
			"method":    payment.Method,
		})
		return s.audit.Log(ctx, tx, req.UserID, "create_payment", "payment", payment.ID, string(data))
	})
	if err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}

func (s *PaymentService) AttachProof(ctx context.Context, paymentID, userID, proofImage string) error {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPaymentNotFound
		}
		return err
	}
	if payment.UserID != userID {
		return ErrNotOwner
	}
	if payment.Status != models.PaymentPending {
		return ErrNotPending
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.payments.UpdateProof(ctx, tx, paymentID, proofImage)
	})
}

type ProcessRequest struct {
	PaymentID string
	AdminID   string
	Status    string
	Note      string
}

// Process transitions a pending payment into a terminal state. The row lock,
// the conditional status update and the balance credit share one serializable
// transaction, so concurrent approvals of the same payment cannot both credit.
func (s *PaymentService) Process(ctx context.Context, req ProcessRequest) (models.Payment, error) {
	if !models.IsTerminalStatus(req.Status) {
		return models.Payment{}, ErrInvalidStatus
	}
	var payment models.Payment
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		payment, err = s.payments.GetForUpdate(ctx, tx, req.PaymentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPaymentNotFound
			}
			return err
		}
		if payment.Status != models.PaymentPending {
			return ErrNotPending
		}
		rows, err := s.payments.MarkProcessed(ctx, tx, req.PaymentID, req.Status, req.AdminID, req.Note)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotPending
		}
		if req.Status == models.PaymentCompleted {
			owner, err := s.users.GetForUpdate(ctx, tx, payment.UserID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrUserNotFound
				}
				return err
			}
			credited, err := s.users.AdjustBalance(ctx, tx, payment.UserID, payment.Amount)
			if err != nil {
				return err
			}
			if credited == 0 {
				return ErrUserNotFound
			}
			balanceAfter = owner.Balance + payment.Amount
		}
		data, _ := json.Marshal(map[string]string{
			"reference": payment.Reference,
			"status":    req.Status,
		})
		return s.audit.Log(ctx, tx, req.AdminID, "process_payment", "payment", payment.ID, string(data))
	})
	if err != nil {
		return models.Payment{}, err
	}
	now := time.Now().UTC()
	payment.Status = req.Status
	payment.AdminNote = req.Note
	payment.ProcessedBy = &req.AdminID
	payment.ProcessedAt = &now
	if req.Status == models.PaymentCompleted {
		s.hub.BroadcastBalance(payment.UserID, websocket.BalanceUpdate{
			Balance:   money.FormatMinor(balanceAfter),
			Reference: payment.Reference,
			Status:    payment.Status,
		})
	}
	return payment, nil
}

type DepositRequest struct {
	UserID      string
	AmountMinor int64
	Method      string
	Description string
}

// Deposit is the self-service flow: the payment record, the balance credit
// and the completion all land in one transaction or not at all.
func (s *PaymentService) Deposit(ctx context.Context, req DepositRequest) (models.Payment, error) {
	if req.AmountMinor <= 0 {
		return models.Payment{}, ErrInvalidAmount
	}
	method := req.Method
	if method == "" {
		method = "bank_transfer"
	}
	if !models.IsValidMethod(method) {
		return models.Payment{}, ErrInvalidMethod
	}
	description := req.Description
	if description == "" {
		description = "Money deposit"
	}
	payment := models.Payment{
		ID:          uuid.NewString(),
		Reference:   newReference(),
		UserID:      req.UserID,
		Amount:      req.AmountMinor,
		Method:      method,
		Description: description,
		Status:      models.PaymentCompleted,
		CreatedAt:   time.Now().UTC(),
	}
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.payments.Create(ctx, tx, store.PaymentInput{
			ID:          payment.ID,
			Reference:   payment.Reference,
			UserID:      payment.UserID,
			Amount:      payment.Amount,
			Method:      payment.Method,
			Description: payment.Description,
			Status:      models.PaymentPending,
		}); err != nil {
			return err
		}
		owner, err := s.users.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		credited, err := s.users.AdjustBalance(ctx, tx, req.UserID, req.AmountMinor)
		if err != nil {
			return err
		}
		if credited == 0 {
			return ErrUserNotFound
		}
		balanceAfter = owner.Balance + req.AmountMinor
		completed, err := s.payments.MarkCompleted(ctx, tx, payment.ID)
		if err != nil {
			return err
		}
		if completed == 0 {
			return ErrNotPending
		}
		data, _ := json.Marshal(map[string]string{
			"reference": payment.Reference,
		})
		return s.audit.Log(ctx, tx, req.UserID, "deposit", "payment", payment.ID, string(data))
	})
	if err != nil {
		return models.Payment{}, err
	}
	s.hub.BroadcastBalance(req.UserID, websocket.BalanceUpdate{
		Balance:   money.FormatMinor(balanceAfter),
		Reference: payment.Reference,
		Status:    payment.Status,
	})
	return payment, nil
}

func newReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("TXN%d%s", time.Now().UnixMilli(), suffix[:9])
}
