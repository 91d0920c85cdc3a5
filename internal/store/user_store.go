package store

import (
	"context"

	"wallet/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

type UserInput struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Role         string
}

const userColumns = `id, username, email, password_hash, full_name, phone, avatar, balance, role, is_active, last_login_at, created_at`

func (s *UserStore) Create(ctx context.Context, tx Execer, input UserInput) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, full_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.Username, input.Email, input.PasswordHash,
		input.FullName, input.Phone, input.Role,
	)
	return err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

// GetByIdentifier looks a user up by username or email; login accepts either.
func (s *UserStore) GetByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1 OR email = $1
	`, identifier)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.User, error) {
	var row models.User
	err := tx.GetContext(ctx, &row, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) AdjustBalance(ctx context.Context, tx Execer, userID string, delta int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
	`, delta, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserStore) UpdateProfile(ctx context.Context, tx Execer, userID string, fullName, phone, avatar *string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET full_name = COALESCE($1, full_name),
		    phone = COALESCE($2, phone),
		    avatar = COALESCE($3, avatar),
		    updated_at = NOW()
		WHERE id = $4
	`, fullName, phone, avatar, userID)
	return err
}

func (s *UserStore) UpdatePassword(ctx context.Context, tx Execer, userID, passwordHash string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = NOW()
		WHERE id = $2
	`, passwordHash, userID)
	return err
}

func (s *UserStore) TouchLastLogin(ctx context.Context, tx Execer, userID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET last_login_at = NOW()
		WHERE id = $1
	`, userID)
	return err
}

// UpdateAdminFields applies the admin-editable fields; nil means unchanged.
func (s *UserStore) UpdateAdminFields(ctx context.Context, tx Execer, userID string, isActive *bool, role *string, balance *int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET is_active = COALESCE($1, is_active),
		    role = COALESCE($2, role),
		    balance = COALESCE($3, balance),
		    updated_at = NOW()
		WHERE id = $4
	`, isActive, role, balance, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserStore) List(ctx context.Context, search, status string, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		p := itoa(len(args))
		query += ` AND (username ILIKE $` + p + ` OR email ILIKE $` + p + ` OR full_name ILIKE $` + p + `)`
	}
	if status != "" {
		args = append(args, status == "active")
		query += ` AND is_active = $` + itoa(len(args))
	}
	args = append(args, limit, offset)
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))
	var rows []models.User
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *UserStore) Count(ctx context.Context, search, status string) (int, error) {
	query := `SELECT COUNT(1) FROM users WHERE 1=1`
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		p := itoa(len(args))
		query += ` AND (username ILIKE $` + p + ` OR email ILIKE $` + p + ` OR full_name ILIKE $` + p + `)`
	}
	if status != "" {
		args = append(args, status == "active")
		query += ` AND is_active = $` + itoa(len(args))
	}
	var count int
	err := s.db.GetContext(ctx, &count, query, args...)
	return count, err
}

func (s *UserStore) Recent(ctx context.Context, limit int) ([]models.User, error) {
	var rows []models.User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *UserStore) HasAdmin(ctx context.Context) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM users WHERE role = 'admin'`)
	return count > 0, err
}
