package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"careerflow/internal/account"
	"careerflow/internal/api/middleware"
	"careerflow/internal/auth"
	"careerflow/internal/config"
	"careerflow/internal/session"
)

// RegisterRoutes wires all API routes onto the engine.
func RegisterRoutes(
	router *gin.Engine,
	accounts account.Store,
	sessions session.Store,
	authService *auth.AuthService,
	gen ResumeGenerator,
	verifier PaymentChecker,
	payCfg config.PaymentConfig,
	cookieDomain string,
	logger *slog.Logger,
) {
	sessionHandler := NewSessionHandler(accounts, sessions, authService, logger, cookieDomain)
	planHandler := NewPlanHandler(accounts, sessions, authService, verifier, payCfg, logger)
	generateHandler := NewGenerateHandler(accounts, sessions, gen, logger, cookieDomain)
	sessionAuth := middleware.SessionMiddleware(authService, sessions)

	v1 := router.Group("/v1")
	{
		sessionGroup := v1.Group("/session")
		{
			sessionGroup.POST("/demo", sessionHandler.StartDemo)
			sessionGroup.POST("/guest", sessionHandler.StartGuest)
			sessionGroup.POST("/login", sessionHandler.Login)
			sessionGroup.POST("/logout", sessionAuth, sessionHandler.Logout)
			sessionGroup.GET("", sessionAuth, sessionHandler.Snapshot)
		}

		planGroup := v1.Group("/plans")
		{
			planGroup.GET("/links", planHandler.Links)
			planGroup.POST("/single", planHandler.ActivateSinglePass)
			planGroup.POST("/trial", planHandler.StartTrial)
		}

		v1.GET("/payment/confirm", planHandler.ConfirmPayment)

		resumeGroup := v1.Group("/resume")
		resumeGroup.Use(sessionAuth)
		{
			resumeGroup.POST("/generate", generateHandler.Generate)
			resumeGroup.GET("/download", generateHandler.Download)
		}
	}
}
