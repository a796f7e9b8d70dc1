package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"careerflow/internal/account"
	"careerflow/internal/api/middleware"
	"careerflow/internal/database"
	"careerflow/internal/docx"
	"careerflow/internal/errcode"
	"careerflow/internal/generator"
	"careerflow/internal/metrics"
	"careerflow/internal/session"
)

// ResumeGenerator is the slice of the generation client the handler needs.
type ResumeGenerator interface {
	Generate(ctx context.Context, req generator.Request) (string, error)
	GenerateSample(ctx context.Context, category, region, style string) (string, error)
}

// GenerateHandler orchestrates one generation: validation, allowance check,
// the LLM call, session bookkeeping and the docx download.
type GenerateHandler struct {
	accounts     account.Store
	sessions     session.Store
	gen          ResumeGenerator
	logger       *slog.Logger
	cookieDomain string
}

// NewGenerateHandler constructs the handler.
func NewGenerateHandler(accounts account.Store, sessions session.Store, gen ResumeGenerator, logger *slog.Logger, cookieDomain string) *GenerateHandler {
	return &GenerateHandler{
		accounts:     accounts,
		sessions:     sessions,
		gen:          gen,
		logger:       logger,
		cookieDomain: cookieDomain,
	}
}

type generateRequest struct {
	Category         string `json:"category" binding:"required"`
	Region           string `json:"region" binding:"required"`
	Style            string `json:"style" binding:"required"`
	JobDescription   string `json:"job_description"`
	CandidateHistory string `json:"candidate_history"`
}

type generateResponse struct {
	Resume       string `json:"resume"`
	Cached       bool   `json:"cached,omitempty"`
	Credits      *int   `json:"credits_remaining,omitempty"`
	FreeUsesLeft *int   `json:"free_uses_left,omitempty"`
}

// Generate runs the gate order that keeps billing honest: field validation,
// then a fresh account read and expiry check, then the allowance, and only
// then the LLM call.
func (h *GenerateHandler) Generate(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if !generator.ValidCategory(req.Category) {
		ErrorCode(c, http.StatusBadRequest, errcode.Validation, "unknown category")
		return
	}
	if !generator.ValidRegion(req.Region) {
		ErrorCode(c, http.StatusBadRequest, errcode.Validation, "unknown region")
		return
	}
	if !generator.ValidStyle(req.Style) {
		ErrorCode(c, http.StatusBadRequest, errcode.Validation, "unknown style")
		return
	}

	if sess.Demo {
		h.generateDemo(c, sess, req)
		return
	}

	// Real generation: history is required before anything is spent.
	if strings.TrimSpace(req.CandidateHistory) == "" {
		ErrorCode(c, http.StatusBadRequest, errcode.Validation, "candidate history is required")
		return
	}
	if req.Category == generator.DemoCategory {
		ErrorCode(c, http.StatusBadRequest, errcode.Validation, "unknown category")
		return
	}

	if sess.Guest() {
		h.generateFreeTier(c, sess, req)
		return
	}
	h.generateForAccount(c, sess, req)
}

// generateDemo serves demo sessions from the per-session sample cache; the
// same (category, region, style) pick never hits the LLM twice.
func (h *GenerateHandler) generateDemo(c *gin.Context, sess *session.Session, req generateRequest) {
	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	if req.Category == generator.DemoCategory {
		text, err := h.gen.Generate(ctx, generator.Request{Category: generator.DemoCategory})
		if err != nil {
			Internal(c, "internal error")
			return
		}
		h.finishGeneration(c, sess, req, generateResponse{Resume: text})
		return
	}

	if cached, err := h.sessions.GetSample(ctx, sess.ID, req.Category, req.Region, req.Style); err == nil {
		metrics.ObserveGeneration(database.PlanDemo, "cached")
		h.finishGeneration(c, sess, req, generateResponse{Resume: cached, Cached: true})
		return
	} else if !errors.Is(err, session.ErrNotFound) {
		logger.Error("sample cache lookup failed", slog.Any("error", err))
	}

	text, err := h.gen.GenerateSample(ctx, req.Category, req.Region, req.Style)
	if err != nil {
		logger.Error("sample generation failed", slog.Any("error", err))
		metrics.ObserveGeneration(database.PlanDemo, "error")
		BadGateway(c, "AI generation failed, please try again")
		return
	}

	if err := h.sessions.PutSample(ctx, sess.ID, req.Category, req.Region, req.Style, text); err != nil {
		logger.Error("sample cache store failed", slog.Any("error", err))
	}

	metrics.ObserveGeneration(database.PlanDemo, "ok")
	h.finishGeneration(c, sess, req, generateResponse{Resume: text})
}

func (h *GenerateHandler) generateFreeTier(c *gin.Context, sess *session.Session, req generateRequest) {
	if sess.FreeUsesLeft() == 0 {
		PaymentRequired(c, errcode.FreeLimitReached, "free limit reached, unlock to continue")
		return
	}

	text, err := h.gen.Generate(c.Request.Context(), toGeneratorRequest(req))
	if err != nil {
		h.loggerFromContext(c).Error("generation failed", slog.Any("error", err))
		metrics.ObserveGeneration(database.PlanFreeTier, "error")
		BadGateway(c, "AI generation failed, please try again")
		return
	}

	sess.FreeUses++
	setFreeUsesCookie(c, h.cookieDomain, sess.FreeUses)

	left := sess.FreeUsesLeft()
	metrics.ObserveGeneration(database.PlanFreeTier, "ok")
	h.finishGeneration(c, sess, req, generateResponse{Resume: text, FreeUsesLeft: &left})
}

func (h *GenerateHandler) generateForAccount(c *gin.Context, sess *session.Session, req generateRequest) {
	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.String("email", sess.Email))

	// Fresh read: credits may have changed in another tab or device.
	acct, err := h.accounts.FindByEmail(ctx, sess.Email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			ErrorCode(c, http.StatusForbidden, errcode.NotFound, "account not found")
			return
		}
		logger.Error("account refresh failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if acct.Expired(time.Now()) {
		if err := h.sessions.Delete(ctx, sess.ID); err != nil {
			logger.Error("clear expired session failed", slog.Any("error", err))
		}
		ErrorCode(c, http.StatusForbidden, errcode.PlanExpired, "plan expired, please renew")
		return
	}

	deducted := false
	if acct.Metered() {
		// Conditional decrement runs before the LLM call; losing the race
		// means the request fails here instead of over-spending.
		if err := h.accounts.DeductCredit(ctx, sess.Email); err != nil {
			if errors.Is(err, account.ErrInsufficientCredits) {
				PaymentRequired(c, errcode.InsufficientCredits, "no credits left")
				return
			}
			logger.Error("credit deduction failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
		deducted = true
		metrics.ObserveCreditDeducted()
	}

	text, err := h.gen.Generate(ctx, toGeneratorRequest(req))
	if err != nil {
		logger.Error("generation failed", slog.Any("error", err))
		metrics.ObserveGeneration(acct.PlanType, "error")
		if deducted {
			// Best effort: give the credit back rather than charging for a
			// failed upstream call.
			if refundErr := h.accounts.RefundCredit(ctx, sess.Email); refundErr != nil {
				logger.Error("credit refund failed", slog.Any("error", refundErr))
			}
		}
		BadGateway(c, "AI generation failed, please try again")
		return
	}

	resp := generateResponse{Resume: text}
	if deducted {
		remaining := acct.Credits - 1
		if remaining < 0 {
			remaining = 0
		}
		resp.Credits = &remaining
	}

	metrics.ObserveGeneration(acct.PlanType, "ok")
	h.finishGeneration(c, sess, req, resp)
}

// finishGeneration stores the result on the session and responds.
func (h *GenerateHandler) finishGeneration(c *gin.Context, sess *session.Session, req generateRequest, resp generateResponse) {
	sess.Document = resp.Resume
	sess.DocumentRegion = req.Region
	if err := h.sessions.Save(c.Request.Context(), sess); err != nil {
		h.loggerFromContext(c).Error("save session failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Download streams the latest generated document as a Word attachment. The
// file is built in memory per request and never touches disk.
func (h *GenerateHandler) Download(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if sess.Document == "" {
		ErrorCode(c, http.StatusNotFound, errcode.NotFound, "no generated resume to download")
		return
	}

	data, err := docx.Render(sess.Document)
	if err != nil {
		h.loggerFromContext(c).Error("docx render failed", slog.Any("error", err))
		Internal(c, "document creation failed")
		return
	}

	filename := docx.Filename(sess.DocumentRegion)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, docx.MIMEType, data)
}

func toGeneratorRequest(req generateRequest) generator.Request {
	return generator.Request{
		Category:         req.Category,
		Region:           req.Region,
		Style:            req.Style,
		CandidateHistory: req.CandidateHistory,
		JobDescription:   req.JobDescription,
	}
}

func (h *GenerateHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
