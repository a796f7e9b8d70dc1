package api

import (
	"time"

	"careerflow/internal/database"
	"careerflow/internal/session"
)

// Access states presented to the client. LOCKED always carries a reason so
// the UI can route the user to the right recovery path.
const (
	StateLocked     = "LOCKED"
	StateDemo       = "DEMO"
	StateFreeTier   = "FREE_TIER"
	StateSinglePass = "SINGLE_PASS"
	StateTrial      = "TRIAL"
	StatePro        = "PRO"
)

// Lock reasons.
const (
	ReasonNotRegistered    = "not_registered"
	ReasonPlanExpired      = "plan_expired"
	ReasonNoCredits        = "no_credits"
	ReasonFreeLimitReached = "free_limit_reached"
)

type stateSnapshot struct {
	State        string     `json:"state"`
	Reason       string     `json:"reason,omitempty"`
	Email        string     `json:"email,omitempty"`
	Plan         string     `json:"plan,omitempty"`
	Credits      *int       `json:"credits,omitempty"`
	FreeUsesLeft *int       `json:"free_uses_left,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	HasDocument  bool       `json:"has_document"`
}

// computeSnapshot derives the access state from the session and, for account
// sessions, a freshly loaded account (nil means the lookup missed). The
// expiry check runs here, before any generation form is served.
func computeSnapshot(sess *session.Session, acct *database.Account, now time.Time) stateSnapshot {
	snap := stateSnapshot{HasDocument: sess.Document != ""}

	if sess.Demo {
		snap.State = StateDemo
		snap.Plan = database.PlanDemo
		return snap
	}

	if sess.Guest() {
		left := sess.FreeUsesLeft()
		snap.Plan = database.PlanFreeTier
		snap.FreeUsesLeft = &left
		if left == 0 {
			snap.State = StateLocked
			snap.Reason = ReasonFreeLimitReached
		} else {
			snap.State = StateFreeTier
		}
		return snap
	}

	snap.Email = sess.Email
	if acct == nil {
		snap.State = StateLocked
		snap.Reason = ReasonNotRegistered
		return snap
	}

	snap.Plan = acct.PlanType
	snap.ExpiryDate = &acct.ExpiryDate

	if acct.Expired(now) {
		snap.State = StateLocked
		snap.Reason = ReasonPlanExpired
		return snap
	}

	switch acct.PlanType {
	case database.PlanSingle:
		credits := acct.Credits
		snap.Credits = &credits
		if credits <= 0 {
			snap.State = StateLocked
			snap.Reason = ReasonNoCredits
		} else {
			snap.State = StateSinglePass
		}
	case database.PlanTrialMonthly:
		snap.State = StateTrial
	case database.PlanProMonthly:
		snap.State = StatePro
	default:
		snap.State = StateLocked
		snap.Reason = ReasonNotRegistered
	}

	return snap
}
