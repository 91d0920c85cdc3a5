package store

import (
	"context"
	"fmt"

	"wallet/internal/models"
)

type PaymentStore struct {
	db DB
}

func NewPaymentStore(db DB) *PaymentStore {
	return &PaymentStore{db: db}
}

type PaymentInput struct {
	ID          string
	Reference   string
	UserID      string
	Amount      int64
	Method      string
	Description string
	Status      string
}

type paymentRow struct {
	ID              string  `db:"id"`
	Reference       string  `db:"reference"`
	UserID          string  `db:"user_id"`
	Username        *string `db:"username"`
	Email           *string `db:"email"`
	FullName        *string `db:"full_name"`
	Amount          int64   `db:"amount"`
	Method          string  `db:"method"`
	Description     string  `db:"description"`
	Status          string  `db:"status"`
	ProofImage      string  `db:"proof_image"`
	AdminNote       string  `db:"admin_note"`
	ProcessedBy     *string `db:"processed_by"`
	ProcessedByName *string `db:"processed_by_name"`
	ProcessedAt     any     `db:"processed_at"`
	CreatedAt       any     `db:"created_at"`
}

const paymentColumns = `id, reference, user_id, amount, method, description, status, proof_image, admin_note, processed_by, processed_at, created_at`

func (s *PaymentStore) Create(ctx context.Context, tx Execer, input PaymentInput) error {
	query := `
		INSERT INTO payments (id, reference, user_id, amount, method, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.Reference, input.UserID, input.Amount,
		input.Method, input.Description, input.Status,
	)
	return err
}

func (s *PaymentStore) GetByID(ctx context.Context, paymentID string) (models.Payment, error) {
	var row models.Payment
	err := s.db.GetContext(ctx, &row, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1
	`, paymentID)
	if err != nil {
		return models.Payment{}, err
	}
	return row, nil
}

func (s *PaymentStore) GetForUpdate(ctx context.Context, tx Getter, paymentID string) (models.Payment, error) {
	var row models.Payment
	err := tx.GetContext(ctx, &row, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`, paymentID)
	if err != nil {
		return models.Payment{}, err
	}
	return row, nil
}

func (s *PaymentStore) UpdateProof(ctx context.Context, tx Execer, paymentID, proofImage string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET proof_image = $1
		WHERE id = $2
	`, proofImage, paymentID)
	return err
}

// MarkProcessed transitions a payment out of pending. The status guard in the
// WHERE clause makes the transition conditional: zero rows affected means the
// payment was no longer pending.
func (s *PaymentStore) MarkProcessed(ctx context.Context, tx Execer, paymentID, status, adminID, note string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, processed_by = $2, admin_note = $3, processed_at = NOW()
		WHERE id = $4 AND status = 'pending'
	`, status, adminID, note, paymentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkCompleted finishes a self-service deposit; no admin is recorded.
func (s *PaymentStore) MarkCompleted(ctx context.Context, tx Execer, paymentID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = 'completed', processed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, paymentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PaymentStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error) {
	var rows []models.Payment
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PaymentStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM payments WHERE user_id = $1`, userID)
	return count, err
}

func (s *PaymentStore) ListAll(ctx context.Context, status, method string, limit, offset int) ([]map[string]any, error) {
	query := `
		SELECT p.id, p.reference, p.user_id, u.username, u.email, u.full_name,
		       p.amount, p.method, p.description, p.status, p.proof_image, p.admin_note,
		       p.processed_by, a.username AS processed_by_name, p.processed_at, p.created_at
		FROM payments p
		LEFT JOIN users u ON u.id = p.user_id
		LEFT JOIN users a ON a.id = p.processed_by
		WHERE 1=1
	`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += ` AND p.status = $` + itoa(len(args))
	}
	if method != "" {
		args = append(args, method)
		query += ` AND p.method = $` + itoa(len(args))
	}
	args = append(args, limit, offset)
	query += ` ORDER BY p.created_at DESC LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))
	var rows []paymentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return paymentRowsToMaps(rows), nil
}

func (s *PaymentStore) CountAll(ctx context.Context, status, method string) (int, error) {
	query := `SELECT COUNT(1) FROM payments WHERE 1=1`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += ` AND status = $` + itoa(len(args))
	}
	if method != "" {
		args = append(args, method)
		query += ` AND method = $` + itoa(len(args))
	}
	var count int
	err := s.db.GetContext(ctx, &count, query, args...)
	return count, err
}

func (s *PaymentStore) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM payments WHERE status = $1`, status)
	return count, err
}

// SumCompleted is the total revenue figure on the admin dashboard.
func (s *PaymentStore) SumCompleted(ctx context.Context) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE status = 'completed'
	`)
	return sum, err
}

func (s *PaymentStore) Recent(ctx context.Context, limit int) ([]map[string]any, error) {
	var rows []paymentRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT p.id, p.reference, p.user_id, u.username, u.email, u.full_name,
		       p.amount, p.method, p.description, p.status, p.proof_image, p.admin_note,
		       p.processed_by, a.username AS processed_by_name, p.processed_at, p.created_at
		FROM payments p
		LEFT JOIN users u ON u.id = p.user_id
		LEFT JOIN users a ON a.id = p.processed_by
		ORDER BY p.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return paymentRowsToMaps(rows), nil
}

func itoa(value int) string {
	return fmt.Sprintf("%d", value)
}

func paymentRowsToMaps(rows []paymentRow) []map[string]any {
	maps := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		maps = append(maps, map[string]any{
			"id":                row.ID,
			"reference":         row.Reference,
			"user_id":           row.UserID,
			"username":          derefStringPtr(row.Username),
			"email":             derefStringPtr(row.Email),
			"full_name":         derefStringPtr(row.FullName),
			"amount":            row.Amount,
			"method":            row.Method,
			"description":       row.Description,
			"status":            row.Status,
			"proof_image":       row.ProofImage,
			"admin_note":        row.AdminNote,
			"processed_by":      derefStringPtr(row.ProcessedBy),
			"processed_by_name": derefStringPtr(row.ProcessedByName),
			"processed_at":      row.ProcessedAt,
			"created_at":        row.CreatedAt,
		})
	}
	return maps
}

func derefStringPtr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
