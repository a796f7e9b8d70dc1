package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"careerflow/internal/database"
)

var (
	// ErrNotFound signals an email that was never registered. Callers must
	// keep it distinct from transport failures so the UI can offer a
	// purchase path instead of a retry.
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientCredits signals a conditional decrement that matched no
	// row, i.e. the account had no credit left.
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Store is the repository over the accounts table.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*database.Account, error)
	Upsert(ctx context.Context, email, planType string, credits, daysValid int) (*database.Account, error)
	DeductCredit(ctx context.Context, email string) error
	RefundCredit(ctx context.Context, email string) error
}

// GormStore implements Store on PostgreSQL via GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs the database-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindByEmail performs a point lookup. Emails compare case-insensitively.
func (s *GormStore) FindByEmail(ctx context.Context, email string) (*database.Account, error) {
	var acct database.Account
	err := s.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&acct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &acct, nil
}

// Upsert creates the account or replaces its plan, credits and expiry
// wholesale. Expiry is computed as now + daysValid days.
func (s *GormStore) Upsert(ctx context.Context, email, planType string, credits, daysValid int) (*database.Account, error) {
	normalized := NormalizeEmail(email)
	expiry := time.Now().AddDate(0, 0, daysValid)

	var acct database.Account
	err := s.db.WithContext(ctx).
		Where("email = ?", normalized).
		First(&acct).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		acct = database.Account{
			Email:      normalized,
			PlanType:   planType,
			Credits:    credits,
			ExpiryDate: expiry,
		}
		if err := s.db.WithContext(ctx).Create(&acct).Error; err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
		return &acct, nil
	case err != nil:
		return nil, fmt.Errorf("lookup account for upsert: %w", err)
	}

	updates := map[string]any{
		"plan_type":   planType,
		"credits":     credits,
		"expiry_date": expiry,
	}
	if err := s.db.WithContext(ctx).Model(&acct).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	acct.PlanType = planType
	acct.Credits = credits
	acct.ExpiryDate = expiry
	return &acct, nil
}

// DeductCredit performs an atomic conditional decrement. Zero affected rows
// means the account is out of credit and the caller must abort before
// generating.
func (s *GormStore) DeductCredit(ctx context.Context, email string) error {
	tx := s.db.WithContext(ctx).
		Model(&database.Account{}).
		Where("email = ? AND credits > 0", NormalizeEmail(email)).
		UpdateColumn("credits", gorm.Expr("credits - 1"))
	if tx.Error != nil {
		return fmt.Errorf("deduct credit: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// RefundCredit returns one credit after a failed generation that already
// burned it.
func (s *GormStore) RefundCredit(ctx context.Context, email string) error {
	tx := s.db.WithContext(ctx).
		Model(&database.Account{}).
		Where("email = ?", NormalizeEmail(email)).
		UpdateColumn("credits", gorm.Expr("credits + 1"))
	if tx.Error != nil {
		return fmt.Errorf("refund credit: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// NormalizeEmail lowercases and trims an address for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
