package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"wallet/internal/models"
	"wallet/internal/services"
)

func adminUserStore() stubUserStore {
	return stubUserStore{
		getByIDFn: func(_ context.Context, userID string) (models.User, error) {
			return models.User{ID: userID, Role: models.RoleAdmin, IsActive: true}, nil
		},
	}
}

func TestCreatePaymentSuccess(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{}, stubAuditStore{}, stubService{
		createFn: func(_ context.Context, req services.CreateRequest) (models.Payment, error) {
			if req.UserID != "user-1" || req.AmountMinor != 5000000 || req.Method != "momo" {
				t.Fatalf("unexpected request: %#v", req)
			}
			return models.Payment{ID: "pay-1", Reference: "TXN1", UserID: req.UserID, Amount: req.AmountMinor, Method: req.Method, Status: models.PaymentPending}, nil
		},
	})

	rr := serveAs(t, h, "user-1", http.MethodPost, "/payments/create", jsonBody(`{
		"amount": "50000",
		"method": "momo"
	}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["status"] != models.PaymentPending {
		t.Fatalf("unexpected status: %v", body["status"])
	}
	if body["amount"] != "50000.00" {
		t.Fatalf("unexpected amount: %v", body["amount"])
	}
}

func TestCreatePaymentBelowMinimum(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{}, stubAuditStore{}, stubService{
		createFn: func(context.Context, services.CreateRequest) (models.Payment, error) {
			return models.Payment{}, services.ErrInvalidAmount
		},
	})
	rr := serveAs(t, h, "user-1", http.MethodPost, "/payments/create", jsonBody(`{
		"amount": "5",
		"method": "momo"
	}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreatePaymentMalformedAmount(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{}, stubAuditStore{}, stubService{
		createFn: func(context.Context, services.CreateRequest) (models.Payment, error) {
			t.Fatalf("service must not be reached")
			return models.Payment{}, nil
		},
	})
	rr := serveAs(t, h, "user-1", http.MethodPost, "/payments/create", jsonBody(`{
		"amount": "abc",
		"method": "momo"
	}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestDepositSuccessHandler(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{}, stubAuditStore{}, stubService{
		depositFn: func(_ context.Context, req services.DepositRequest) (models.Payment, error) {
			if req.AmountMinor != 250000 {
				t.Fatalf("unexpected amount: %d", req.AmountMinor)
			}
			return models.Payment{ID: "pay-1", UserID: req.UserID, Amount: req.AmountMinor, Status: models.PaymentCompleted}, nil
		},
	})
	rr := serveAs(t, h, "user-1", http.MethodPost, "/payments/deposit", jsonBody(`{"amount": "2500"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["status"] != models.PaymentCompleted {
		t.Fatalf("unexpected status: %v", body["status"])
	}
}

func TestMyPaymentsPagination(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{
		listByUserFn: func(_ context.Context, userID string, limit, offset int) ([]models.Payment, error) {
			if userID != "user-1" || limit != 10 || offset != 10 {
				t.Fatalf("unexpected query: %s %d %d", userID, limit, offset)
			}
			return []models.Payment{{ID: "pay-1", UserID: userID, Amount: 5000000, Status: models.PaymentPending}}, nil
		},
		countByUserFn: func(context.Context, string) (int, error) {
			return 25, nil
		},
	}, stubAuditStore{}, stubService{})

	rr := serveAs(t, h, "user-1", http.MethodGet, "/payments/my-payments?page=2&limit=10", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	pagination, ok := body["pagination"].(map[string]any)
	if !ok {
		t.Fatalf("missing pagination envelope: %v", body)
	}
	if pagination["current"] != float64(2) || pagination["pages"] != float64(3) || pagination["total"] != float64(25) {
		t.Fatalf("unexpected pagination: %v", pagination)
	}
}

func TestGetPaymentOwner(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{
		getByIDFn: func(_ context.Context, paymentID string) (models.Payment, error) {
			return models.Payment{ID: paymentID, UserID: "user-1", Amount: 5000000, Status: models.PaymentPending}, nil
		},
	}, stubAuditStore{}, stubService{})

	rr := serveAs(t, h, "user-1", http.MethodGet, "/payments/pay-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetPaymentForeignAccount(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{
		getByIDFn: func(_ context.Context, paymentID string) (models.Payment, error) {
			return models.Payment{ID: paymentID, UserID: "someone-else", Status: models.PaymentPending}, nil
		},
	}, stubAuditStore{}, stubService{})

	rr := serveAs(t, h, "user-1", http.MethodGet, "/payments/pay-1", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestGetPaymentAdminBypassesOwnership(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, adminUserStore(), stubPaymentStore{
		getByIDFn: func(_ context.Context, paymentID string) (models.Payment, error) {
			return models.Payment{ID: paymentID, UserID: "someone-else", Status: models.PaymentPending}, nil
		},
	}, stubAuditStore{}, stubService{})

	rr := serveAs(t, h, "admin-1", http.MethodGet, "/payments/pay-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{
		getByIDFn: func(context.Context, string) (models.Payment, error) {
			return models.Payment{}, sql.ErrNoRows
		},
	}, stubAuditStore{}, stubService{})

	rr := serveAs(t, h, "user-1", http.MethodGet, "/payments/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestUploadProofStateErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", services.ErrPaymentNotFound, http.StatusNotFound},
		{"not owner", services.ErrNotOwner, http.StatusForbidden},
		{"already processed", services.ErrNotPending, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{}, stubAuditStore{}, stubService{
				attachProofFn: func(context.Context, string, string, string) error {
					return tc.err
				},
			})
			rr := serveAs(t, h, "user-1", http.MethodPut, "/payments/pay-1/upload-proof", jsonBody(`{"proof_image": "img.png"}`))
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}
}

func TestUploadProofMissingImage(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{}, stubAuditStore{}, stubService{})
	rr := serveAs(t, h, "user-1", http.MethodPut, "/payments/pay-1/upload-proof", jsonBody(`{}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestProcessPaymentRequiresAdmin(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubPaymentStore{}, stubAuditStore{}, stubService{
		processFn: func(context.Context, services.ProcessRequest) (models.Payment, error) {
			t.Fatalf("service must not be reached")
			return models.Payment{}, nil
		},
	})
	rr := serveAs(t, h, "user-1", http.MethodPut, "/payments/pay-1/process", jsonBody(`{"status": "completed"}`))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestProcessPaymentCompleted(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, adminUserStore(), stubPaymentStore{}, stubAuditStore{}, stubService{
		processFn: func(_ context.Context, req services.ProcessRequest) (models.Payment, error) {
			if req.PaymentID != "pay-1" || req.AdminID != "admin-1" || req.Status != models.PaymentCompleted {
				t.Fatalf("unexpected request: %#v", req)
			}
			adminID := req.AdminID
			return models.Payment{ID: req.PaymentID, UserID: "user-1", Amount: 5000000, Status: req.Status, ProcessedBy: &adminID}, nil
		},
	})
	rr := serveAs(t, h, "admin-1", http.MethodPut, "/payments/pay-1/process", jsonBody(`{
		"status": "completed",
		"admin_note": "verified"
	}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["status"] != models.PaymentCompleted {
		t.Fatalf("unexpected status: %v", body["status"])
	}
	if body["processed_by"] != "admin-1" {
		t.Fatalf("unexpected processor: %v", body["processed_by"])
	}
}

func TestProcessPaymentAlreadyProcessed(t *testing.T) {
	h := newTestHandler(fakeTxRunner{}, adminUserStore(), stubPaymentStore{}, stubAuditStore{}, stubService{
		processFn: func(context.Context, services.ProcessRequest) (models.Payment, error) {
			return models.Payment{}, services.ErrNotPending
		},
	})
	rr := serveAs(t, h, "admin-1", http.MethodPut, "/payments/pay-1/process", jsonBody(`{"status": "failed"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
