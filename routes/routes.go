package routes

import (
	"offerhive/internal/config"
	"offerhive/internal/handlers"
	"offerhive/internal/middleware"
	"offerhive/internal/services"
	"offerhive/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Offer   *handlers.OfferHandler
	Task    *handlers.TaskHandler
	Manager *handlers.ManagerHandler
	User    *handlers.UserHandler
	Admin   *handlers.AdminHandler
}

// SetupRoutes wires the HTTP surface. Everything under /api/v1 is tenant
// scoped: the Host header picks the tenant before any handler runs.
func SetupRoutes(router *gin.Engine, h *Handlers, tenants services.TenantService, security *config.SecurityConfig, log *logger.Logger) {
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.CORSMiddleware(security.CORSAllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.TenantRequired(tenants))

	auth := v1.Group("/auth")
	{
		auth.POST("/send-otp", h.Auth.SendOTP)
		auth.POST("/verify-otp", h.Auth.VerifyOTP)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
	}

	offers := v1.Group("/offers")
	{
		offers.GET("", h.Offer.List)
		offers.GET("/:id", h.Offer.Get)
	}

	authed := v1.Group("")
	authed.Use(middleware.AuthRequired(security.JWTAccessSecret))

	tasks := authed.Group("/tasks")
	{
		tasks.POST("", h.Task.Start)
		tasks.GET("", h.Task.List)
		tasks.GET("/:id", h.Task.Get)
		tasks.PUT("/:id/steps", h.Task.SaveStep)
		tasks.POST("/:id/proofs", h.Task.UploadProof)
		tasks.POST("/:id/submit", h.Task.Submit)
	}

	me := authed.Group("/me")
	{
		me.GET("", h.User.Profile)
		me.GET("/balance", h.User.Balance)
		me.GET("/history", h.User.History)
		me.GET("/referrals", h.User.Referrals)
		me.GET("/referrals/downline", h.User.Downline)
	}

	manager := authed.Group("/manager")
	manager.Use(middleware.ManagerRequired())
	{
		manager.GET("/queue", h.Manager.Queue)
		manager.POST("/tasks/:id/review", h.Manager.Review)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.POST("/ledger/adjustments", h.Admin.ManualAdjustment)
		admin.POST("/ledger/accounts/:id/recalculate", h.Admin.RecalculateBalance)
		admin.POST("/offers", h.Admin.CreateOffer)
		admin.PATCH("/offers/:id", h.Admin.UpdateOffer)
		admin.DELETE("/offers/:id", h.Admin.DeactivateOffer)
	}
}
