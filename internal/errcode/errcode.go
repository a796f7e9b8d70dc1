package errcode

// Error code conventions:
// - 0: no error
// - 4xxx: user-recoverable errors (validation, exhausted allowance, expiry)
// - 5xxx: system errors (aborts the current action)
const (
	OK                  = 0
	Validation          = 4001
	InsufficientCredits = 4002
	PlanExpired         = 4003
	NotFound            = 4004
	PaymentIncomplete   = 4005
	FreeLimitReached    = 4006
	SystemError         = 5000
	UpstreamError       = 5002
)
