package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wallet/internal/auth"
	"wallet/internal/config"
	"wallet/internal/models"
	"wallet/internal/services"
	"wallet/internal/store"
	"wallet/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func uniqueViolation() error {
	return &pq.Error{Code: "23505"}
}

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn            func(ctx context.Context, tx store.Execer, input store.UserInput) error
	getByIDFn           func(ctx context.Context, userID string) (models.User, error)
	getByIdentifierFn   func(ctx context.Context, identifier string) (models.User, error)
	updateProfileFn     func(ctx context.Context, tx store.Execer, userID string, fullName, phone, avatar *string) error
	updatePasswordFn    func(ctx context.Context, tx store.Execer, userID, passwordHash string) error
	touchLastLoginFn    func(ctx context.Context, tx store.Execer, userID string) error
	updateAdminFieldsFn func(ctx context.Context, tx store.Execer, userID string, isActive *bool, role *string, balance *int64) (int64, error)
	listFn              func(ctx context.Context, search, status string, limit, offset int) ([]models.User, error)
	countFn             func(ctx context.Context, search, status string) (int, error)
	recentFn            func(ctx context.Context, limit int) ([]models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, input store.UserInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID, Role: models.RoleUser, IsActive: true}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) GetByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	if s.getByIdentifierFn == nil {
		return models.User{}, nil
	}
	return s.getByIdentifierFn(ctx, identifier)
}

func (s stubUserStore) UpdateProfile(ctx context.Context, tx store.Execer, userID string, fullName, phone, avatar *string) error {
	if s.updateProfileFn == nil {
		return nil
	}
	return s.updateProfileFn(ctx, tx, userID, fullName, phone, avatar)
}

func (s stubUserStore) UpdatePassword(ctx context.Context, tx store.Execer, userID, passwordHash string) error {
	if s.updatePasswordFn == nil {
		return nil
	}
	return s.updatePasswordFn(ctx, tx, userID, passwordHash)
}

func (s stubUserStore) TouchLastLogin(ctx context.Context, tx store.Execer, userID string) error {
	if s.touchLastLoginFn == nil {
		return nil
	}
	return s.touchLastLoginFn(ctx, tx, userID)
}

func (s stubUserStore) UpdateAdminFields(ctx context.Context, tx store.Execer, userID string, isActive *bool, role *string, balance *int64) (int64, error) {
	if s.updateAdminFieldsFn == nil {
		return 1, nil
	}
	return s.updateAdminFieldsFn(ctx, tx, userID, isActive, role, balance)
}

func (s stubUserStore) List(ctx context.Context, search, status string, limit, offset int) ([]models.User, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, search, status, limit, offset)
}

func (s stubUserStore) Count(ctx context.Context, search, status string) (int, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx, search, status)
}

func (s stubUserStore) Recent(ctx context.Context, limit int) ([]models.User, error) {
	if s.recentFn == nil {
		return nil, nil
	}
	return s.recentFn(ctx, limit)
}

type stubPaymentStore struct {
	getByIDFn       func(ctx context.Context, paymentID string) (models.Payment, error)
	listByUserFn    func(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error)
	countByUserFn   func(ctx context.Context, userID string) (int, error)
	listAllFn       func(ctx context.Context, status, method string, limit, offset int) ([]map[string]any, error)
	countAllFn      func(ctx context.Context, status, method string) (int, error)
	countByStatusFn func(ctx context.Context, status string) (int, error)
	sumCompletedFn  func(ctx context.Context) (int64, error)
	recentFn        func(ctx context.Context, limit int) ([]map[string]any, error)
}

func (s stubPaymentStore) GetByID(ctx context.Context, paymentID string) (models.Payment, error) {
	if s.getByIDFn == nil {
		return models.Payment{}, nil
	}
	return s.getByIDFn(ctx, paymentID)
}

func (s stubPaymentStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

func (s stubPaymentStore) CountByUser(ctx context.Context, userID string) (int, error) {
	if s.countByUserFn == nil {
		return 0, nil
	}
	return s.countByUserFn(ctx, userID)
}

func (s stubPaymentStore) ListAll(ctx context.Context, status, method string, limit, offset int) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, status, method, limit, offset)
}

func (s stubPaymentStore) CountAll(ctx context.Context, status, method string) (int, error) {
	if s.countAllFn == nil {
		return 0, nil
	}
	return s.countAllFn(ctx, status, method)
}

func (s stubPaymentStore) CountByStatus(ctx context.Context, status string) (int, error) {
	if s.countByStatusFn == nil {
		return 0, nil
	}
	return s.countByStatusFn(ctx, status)
}

func (s stubPaymentStore) SumCompleted(ctx context.Context) (int64, error) {
	if s.sumCompletedFn == nil {
		return 0, nil
	}
	return s.sumCompletedFn(ctx)
}

func (s stubPaymentStore) Recent(ctx context.Context, limit int) ([]map[string]any, error) {
	if s.recentFn == nil {
		return nil, nil
	}
	return s.recentFn(ctx, limit)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubService struct {
	createFn      func(ctx context.Context, req services.CreateRequest) (models.Payment, error)
	attachProofFn func(ctx context.Context, paymentID, userID, proofImage string) error
	processFn     func(ctx context.Context, req services.ProcessRequest) (models.Payment, error)
	depositFn     func(ctx context.Context, req services.DepositRequest) (models.Payment, error)
}

func (s stubService) Create(ctx context.Context, req services.CreateRequest) (models.Payment, error) {
	if s.createFn == nil {
		return models.Payment{}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubService) AttachProof(ctx context.Context, paymentID, userID, proofImage string) error {
	if s.attachProofFn == nil {
		return nil
	}
	return s.attachProofFn(ctx, paymentID, userID, proofImage)
}

func (s stubService) Process(ctx context.Context, req services.ProcessRequest) (models.Payment, error) {
	if s.processFn == nil {
		return models.Payment{}, nil
	}
	return s.processFn(ctx, req)
}

func (s stubService) Deposit(ctx context.Context, req services.DepositRequest) (models.Payment, error) {
	if s.depositFn == nil {
		return models.Payment{}, nil
	}
	return s.depositFn(ctx, req)
}

type noopProxy struct{}

func (noopProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func newTestHandler(txRunner fakeTxRunner, users stubUserStore, payments stubPaymentStore, audit stubAuditStore, service stubService) *Handler {
	cfg := config.Config{
		AppEnv:          "test",
		Port:            "0",
		JWTSecret:       "secret",
		TokenTTL:        time.Minute,
		AllowedOrigins:  "*",
		MinPaymentMinor: 1000000,
	}
	return New(txRunner, cfg, users, payments, audit, service, websocket.NewHub(), noopProxy{})
}

func serveAs(t *testing.T, h *Handler, userID, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if userID != "" {
		token, err := auth.GenerateToken("secret", userID, time.Minute)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var parsed map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&parsed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return parsed
}

func jsonBody(raw string) io.Reader {
	return strings.NewReader(raw)
}
