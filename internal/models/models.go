package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
)

// PaymentMethods is the accepted set of payment channels.
var PaymentMethods = []string{"bank_transfer", "credit_card", "paypal", "momo", "zalopay"}

type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Phone        string     `db:"phone" json:"phone"`
	Avatar       string     `db:"avatar" json:"avatar"`
	Balance      int64      `db:"balance" json:"balance"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

type Payment struct {
	ID          string     `db:"id" json:"id"`
	Reference   string     `db:"reference" json:"reference"`
	UserID      string     `db:"user_id" json:"user_id"`
	Amount      int64      `db:"amount" json:"amount"`
	Method      string     `db:"method" json:"method"`
	Description string     `db:"description" json:"description"`
	Status      string     `db:"status" json:"status"`
	ProofImage  string     `db:"proof_image" json:"proof_image,omitempty"`
	AdminNote   string     `db:"admin_note" json:"admin_note,omitempty"`
	ProcessedBy *string    `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

func IsTerminalStatus(status string) bool {
	switch status {
	case PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

func IsValidMethod(method string) bool {
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
