package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"careerflow/internal/account"
	"careerflow/internal/api/middleware"
	"careerflow/internal/auth"
	"careerflow/internal/config"
	"careerflow/internal/errcode"
	"careerflow/internal/metrics"
	"careerflow/internal/payment"
	"careerflow/internal/session"
)

// PaymentChecker resolves a tracking id to a gateway payment status.
type PaymentChecker interface {
	CheckTracking(ctx context.Context, trackingID string) (payment.Status, error)
}

// PlanHandler handles plan purchases and signups: single-pass activation via
// manual transaction code, trial signup, and the gateway-redirect
// confirmation that unlocks the monthly plan.
type PlanHandler struct {
	accounts    account.Store
	sessions    session.Store
	authService *auth.AuthService
	verifier    PaymentChecker
	payCfg      config.PaymentConfig
	logger      *slog.Logger
}

// NewPlanHandler constructs the handler.
func NewPlanHandler(accounts account.Store, sessions session.Store, authService *auth.AuthService, verifier PaymentChecker, payCfg config.PaymentConfig, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		accounts:    accounts,
		sessions:    sessions,
		authService: authService,
		verifier:    verifier,
		payCfg:      payCfg,
		logger:      logger,
	}
}

// Links lists the hosted checkout URLs the client renders as pay buttons.
func (h *PlanHandler) Links(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"single_link":  h.payCfg.SingleLink,
		"monthly_link": h.payCfg.MonthlyLink,
		"paypal_link":  h.payCfg.PayPalLink,
	})
}

type singlePassRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// ActivateSinglePass checks the typed transaction code and writes the
// single-pass grant. The code check is a length heuristic only; real
// verification runs on the tracking-id path.
func (h *PlanHandler) ActivateSinglePass(c *gin.Context) {
	var req singlePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := payment.ValidateManualCode(req.Code); err != nil {
		ErrorCode(c, http.StatusBadRequest, errcode.Validation, "transaction code looks invalid")
		return
	}

	h.grantAndLogin(c, req.Email, account.SinglePassGrant, "single pass activated")
}

type trialRequest struct {
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,min=6"`
}

// StartTrial signs the user up for the time-limited trial. No payment is
// taken; the grant carries the unlimited-credit sentinel and a short expiry.
func (h *PlanHandler) StartTrial(c *gin.Context) {
	var req trialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	h.grantAndLogin(c, req.Email, account.TrialGrant, "trial started")
}

// ConfirmPayment handles the gateway's return redirect. The client forwards
// the tracking/checkout id from the URL exactly once and must drop the query
// parameter afterwards so reloads do not re-verify.
func (h *PlanHandler) ConfirmPayment(c *gin.Context) {
	trackingID := c.Query("tracking_id")
	if trackingID == "" {
		trackingID = c.Query("checkout_id")
	}
	if trackingID == "" {
		BadRequest(c, "missing tracking id")
		return
	}

	email := c.Query("email")
	if email == "" {
		BadRequest(c, "missing email")
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.String("tracking_id", trackingID))

	status, err := h.verifier.CheckTracking(ctx, trackingID)
	if err != nil {
		logger.Error("payment status check failed", slog.Any("error", err))
		metrics.ObservePaymentVerification("error")
		BadGateway(c, "could not reach payment gateway")
		return
	}
	metrics.ObservePaymentVerification(string(status))

	switch status {
	case payment.StatusComplete:
		h.grantAndLogin(c, email, account.ProGrant, "payment verified")
	case payment.StatusPending:
		c.JSON(http.StatusAccepted, gin.H{
			"status":  string(payment.StatusPending),
			"message": "payment is processing, retry shortly",
		})
	default:
		ErrorCode(c, http.StatusPaymentRequired, errcode.PaymentIncomplete, "payment not completed")
	}
}

// grantAndLogin upserts the plan, re-reads the record and opens a logged-in
// session, so activation and first login are one round trip.
func (h *PlanHandler) grantAndLogin(c *gin.Context, email string, grant account.Grant, logMsg string) {
	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(
		slog.String("email", account.NormalizeEmail(email)),
		slog.String("plan", grant.PlanType),
	)

	upserted, err := h.accounts.Upsert(ctx, email, grant.PlanType, grant.Credits, grant.DaysValid)
	if err != nil {
		logger.Error("plan upsert failed", slog.Any("error", err))
		Internal(c, "could not save plan")
		return
	}

	acct, err := h.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			// Offline store: the write did not persist. Fall back to the
			// upsert's view so demo-only deployments keep functioning.
			acct = upserted
		} else {
			logger.Error("post-upsert lookup failed", slog.Any("error", err))
			Internal(c, "could not load account")
			return
		}
	}

	sess := &session.Session{Email: account.NormalizeEmail(email)}
	if err := h.sessions.Create(ctx, sess); err != nil {
		logger.Error("create session failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	token, err := h.authService.IssueToken(sess.ID, sess.Email)
	if err != nil {
		logger.Error("issue token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info(logMsg)
	c.JSON(http.StatusCreated, sessionResponse{
		Token: token,
		State: computeSnapshot(sess, acct, time.Now()),
	})
}

func (h *PlanHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
