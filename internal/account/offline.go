package account

import (
	"context"
	"time"

	"careerflow/internal/database"
)

// OfflineStore is the stub used when the service boots without a database
// (OFFLINE_MODE). Lookups miss, writes succeed without persisting anything,
// so only demo flows remain meaningful.
type OfflineStore struct{}

// NewOfflineStore constructs the stub store.
func NewOfflineStore() *OfflineStore {
	return &OfflineStore{}
}

func (*OfflineStore) FindByEmail(_ context.Context, _ string) (*database.Account, error) {
	return nil, ErrNotFound
}

func (*OfflineStore) Upsert(_ context.Context, email, planType string, credits, daysValid int) (*database.Account, error) {
	return &database.Account{
		Email:      NormalizeEmail(email),
		PlanType:   planType,
		Credits:    credits,
		ExpiryDate: time.Now().AddDate(0, 0, daysValid),
	}, nil
}

func (*OfflineStore) DeductCredit(_ context.Context, _ string) error { return nil }

func (*OfflineStore) RefundCredit(_ context.Context, _ string) error { return nil }
