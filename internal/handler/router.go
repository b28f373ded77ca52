package handler

import (
	"fmt"
	"net/http"

	"github.com/eaglebank/ledger/shared/metrics"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RouterDeps collects what NewRouter needs to mount every route.
type RouterDeps struct {
	Auth           *AuthHandler
	Account        *AccountHandler
	ValidateAccess middleware.ValidateFunc
	RateLimiter    *middleware.RateLimiter
	Metrics        *metrics.Metrics
	Log            *logrus.Entry
	// TrustedProxies lists the proxy IPs or CIDRs allowed to set
	// X-Forwarded-For. Empty means the peer address is the client.
	TrustedProxies []string
}

func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	if deps.Log != nil {
		router.Use(middleware.LoggingMiddleware(deps.Log))
	}
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.NoRoute(func(c *gin.Context) {
		middleware.RespondWithError(c, http.StatusNotFound, "Not found")
	})
	router.NoMethod(func(c *gin.Context) {
		middleware.RespondWithError(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Credential endpoints are rate limited per client.
	public := router.Group("")
	if deps.RateLimiter != nil {
		public.Use(deps.RateLimiter.Handler())
	}
	public.POST("/registration", deps.Auth.Register)
	public.POST("/login", deps.Auth.Login)

	router.POST("/token/refresh", deps.Auth.RefreshToken)
	router.POST("/logout", deps.Auth.Logout)

	protected := router.Group("", middleware.AuthMiddleware(deps.ValidateAccess))
	{
		protected.GET("/balance", deps.Account.GetBalance)
		protected.POST("/transaction", deps.Account.Transfer)
	}

	return router, nil
}
