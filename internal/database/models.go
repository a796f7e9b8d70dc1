package database

import (
	"time"

	"gorm.io/gorm"
)

// Plan types. An account's plan governs how generation allowance is counted:
// SINGLE burns one credit per generation, the trial and monthly plans ignore
// credits until their expiry date passes.
const (
	PlanDemo         = "DEMO"
	PlanFreeTier     = "FREE_TIER"
	PlanSingle       = "SINGLE"
	PlanTrialMonthly = "TRIAL_MONTHLY"
	PlanProMonthly   = "PRO_MONTHLY"
)

// Account is the persistent user record, one per email address.
// Email is stored lowercased; every upsert replaces plan, credits and expiry
// wholesale.
type Account struct {
	gorm.Model
	Email      string    `gorm:"uniqueIndex;size:255"`
	PlanType   string    `gorm:"size:32"`
	Credits    int       `gorm:"not null;default:0"`
	ExpiryDate time.Time `gorm:"index"`
}

// Expired reports whether the account's plan lapsed before now.
func (a Account) Expired(now time.Time) bool {
	if a.ExpiryDate.IsZero() {
		return false
	}
	return now.After(a.ExpiryDate)
}

// Metered reports whether generations under this plan consume credits.
func (a Account) Metered() bool {
	return a.PlanType == PlanSingle
}
