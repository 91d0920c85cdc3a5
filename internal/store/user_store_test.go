package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"wallet/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO users") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 7 || args[1] != "alice" || args[6] != "user" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	err := store.Create(ctx, execer, UserInput{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		FullName:     "Alice",
		Role:         models.RoleUser,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserStoreGetByIdentifier(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "username = $1 OR email = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*models.User) = models.User{ID: "user-1", Username: "alice"}
			return nil
		},
	})
	user, err := store.GetByIdentifier(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user: %#v", user)
	}
}

func TestUserStoreAdjustBalance(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "balance = balance + $1") {
				t.Fatalf("expected relative balance update, got: %s", query)
			}
			if args[0] != int64(5000000) || args[1] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	rows, err := store.AdjustBalance(ctx, execer, "user-1", 5000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row, got %d", rows)
	}
}

func TestUserStoreListSearchAndStatus(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "ILIKE $1") || !strings.Contains(query, "is_active = $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != "%ali%" || args[1] != true {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.User) = []models.User{{ID: "user-1"}}
			return nil
		},
	})
	users, err := store.List(ctx, "ali", "active", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected one user, got %d", len(users))
	}
}

func TestUserStoreUpdateAdminFieldsCoalesces(t *testing.T) {
	ctx := context.Background()
	active := false
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "COALESCE($1, is_active)") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != &active || args[1] != (*string)(nil) || args[2] != (*int64)(nil) {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	rows, err := store.UpdateAdminFields(ctx, execer, "user-1", &active, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row, got %d", rows)
	}
}

func TestUserStoreHasAdmin(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "role = 'admin'") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*int) = 1
			return nil
		},
	})
	has, err := store.HasAdmin(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Fatalf("expected admin to exist")
	}
}
