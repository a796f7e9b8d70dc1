package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"careerflow/internal/account"
	"careerflow/internal/api/middleware"
	"careerflow/internal/auth"
	"careerflow/internal/database"
	"careerflow/internal/errcode"
	"careerflow/internal/session"
)

// freeUsesCookieName mirrors the guest free-use counter client-side so it
// survives the Redis session's TTL.
const freeUsesCookieName = "careerflow_usage_tracker"

// Ten years, in seconds.
const freeUsesCookieMaxAge = 10 * 365 * 24 * 60 * 60

// SessionHandler owns session entry and exit: demo, guest, returning-user
// login, logout and the state snapshot the UI renders from.
type SessionHandler struct {
	accounts     account.Store
	sessions     session.Store
	authService  *auth.AuthService
	logger       *slog.Logger
	cookieDomain string
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(accounts account.Store, sessions session.Store, authService *auth.AuthService, logger *slog.Logger, cookieDomain string) *SessionHandler {
	return &SessionHandler{
		accounts:     accounts,
		sessions:     sessions,
		authService:  authService,
		logger:       logger,
		cookieDomain: cookieDomain,
	}
}

type sessionResponse struct {
	Token string        `json:"token"`
	State stateSnapshot `json:"state"`
}

// StartDemo opens a demo session. No persistence, no credentials.
func (h *SessionHandler) StartDemo(c *gin.Context) {
	sess := &session.Session{Demo: true}
	h.issueSession(c, sess, http.StatusCreated)
}

// StartGuest opens a free-tier session, resuming the free-use counter from
// the long-lived cookie when present.
func (h *SessionHandler) StartGuest(c *gin.Context) {
	sess := &session.Session{}
	if raw, err := c.Cookie(freeUsesCookieName); err == nil {
		if uses, err := strconv.Atoi(raw); err == nil && uses > 0 {
			sess.FreeUses = uses
		}
	}
	h.issueSession(c, sess, http.StatusCreated)
}

type loginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Login loads a returning user's account by email. An unknown email is a 404
// with a distinct code; only transport problems surface as 5xx.
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.String("email", account.NormalizeEmail(req.Email)))

	acct, err := h.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			logger.Info("login failed: account not found")
			ErrorCode(c, http.StatusNotFound, errcode.NotFound, "account not found")
			return
		}
		logger.Error("login lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	sess := &session.Session{Email: acct.Email}
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

	logger.Info("user logged in", slog.String("plan", acct.PlanType))
	c.JSON(http.StatusOK, sessionResponse{
		Token: token,
		State: computeSnapshot(sess, acct, time.Now()),
	})
}

// Logout deletes the session; the token becomes useless immediately.
func (h *SessionHandler) Logout(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
		h.loggerFromContext(c).Error("delete session failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.Status(http.StatusOK)
}

// Snapshot re-reads the account and reports the current access state. Expiry
// detected here clears the session so a stale tab cannot sneak in another
// generation.
func (h *SessionHandler) Snapshot(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	now := time.Now()

	var acct *database.Account
	if sess.Email != "" {
		found, err := h.accounts.FindByEmail(ctx, sess.Email)
		if err != nil && !errors.Is(err, account.ErrNotFound) {
			h.loggerFromContext(c).Error("snapshot account lookup failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
		acct = found
	}

	snap := computeSnapshot(sess, acct, now)
	if snap.State == StateLocked && (snap.Reason == ReasonPlanExpired || snap.Reason == ReasonNotRegistered) {
		if err := h.sessions.Delete(ctx, sess.ID); err != nil {
			h.loggerFromContext(c).Error("clear expired session failed", slog.Any("error", err))
		}
	}

	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) issueSession(c *gin.Context, sess *session.Session, status int) {
	logger := h.loggerFromContext(c)

	if err := h.sessions.Create(c.Request.Context(), sess); err != nil {
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

	c.JSON(status, sessionResponse{
		Token: token,
		State: computeSnapshot(sess, nil, time.Now()),
	})
}

func (h *SessionHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

// setFreeUsesCookie mirrors the counter client-side with a far-future expiry.
func setFreeUsesCookie(c *gin.Context, domain string, uses int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     freeUsesCookieName,
		Value:    strconv.Itoa(uses),
		MaxAge:   freeUsesCookieMaxAge,
		Path:     "/",
		Domain:   strings.TrimSpace(domain),
		SameSite: http.SameSiteLaxMode,
	})
}
