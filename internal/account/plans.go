package account

import "careerflow/internal/database"

// UnlimitedCredits is the sentinel written for plans that never meter
// generations; the column stays populated but is ignored by allowance checks.
const UnlimitedCredits = 9999

// Grant describes the full record an upsert writes for a plan purchase or
// signup.
type Grant struct {
	PlanType  string
	Credits   int
	DaysValid int
}

var (
	// SinglePassGrant: 3 generations, valid for one day.
	SinglePassGrant = Grant{PlanType: database.PlanSingle, Credits: 3, DaysValid: 1}

	// TrialGrant: unlimited generations for three days, no payment taken.
	TrialGrant = Grant{PlanType: database.PlanTrialMonthly, Credits: UnlimitedCredits, DaysValid: 3}

	// ProGrant: unlimited generations for thirty days, written after the
	// gateway confirms a checkout.
	ProGrant = Grant{PlanType: database.PlanProMonthly, Credits: UnlimitedCredits, DaysValid: 30}
)
