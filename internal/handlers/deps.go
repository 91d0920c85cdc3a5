package handlers

import (
	"context"

	"wallet/internal/models"
	"wallet/internal/services"
	"wallet/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, input store.UserInput) error
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (models.User, error)
	UpdateProfile(ctx context.Context, tx store.Execer, userID string, fullName, phone, avatar *string) error
	UpdatePassword(ctx context.Context, tx store.Execer, userID, passwordHash string) error
	TouchLastLogin(ctx context.Context, tx store.Execer, userID string) error
	UpdateAdminFields(ctx context.Context, tx store.Execer, userID string, isActive *bool, role *string, balance *int64) (int64, error)
	List(ctx context.Context, search, status string, limit, offset int) ([]models.User, error)
	Count(ctx context.Context, search, status string) (int, error)
	Recent(ctx context.Context, limit int) ([]models.User, error)
}

type PaymentStore interface {
	GetByID(ctx context.Context, paymentID string) (models.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	ListAll(ctx context.Context, status, method string, limit, offset int) ([]map[string]any, error)
	CountAll(ctx context.Context, status, method string) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	SumCompleted(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]map[string]any, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type PaymentService interface {
	Create(ctx context.Context, req services.CreateRequest) (models.Payment, error)
	AttachProof(ctx context.Context, paymentID, userID, proofImage string) error
	Process(ctx context.Context, req services.ProcessRequest) (models.Payment, error)
	Deposit(ctx context.Context, req services.DepositRequest) (models.Payment, error)
}
