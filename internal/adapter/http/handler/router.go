package handler

import (
	"digital-wallet/internal/adapter/http/middleware"
	redisStore "digital-wallet/internal/adapter/storage/redis"
	"digital-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	HistorySvc     ports.HistoryService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.LedgerSvc)
	txHandler := NewTransactionHandler(deps.LedgerSvc, deps.HistorySvc)

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("", rl("history"), walletHandler.GetWallet)
		wallet.POST("/deposit", rl("movements"), walletHandler.Deposit)
		wallet.POST("/withdraw", rl("movements"), walletHandler.Withdraw)
	}

	transfers := v1.Group("/transfers", jwtAuth)
	{
		transfers.POST("", rl("movements"), txHandler.Transfer)
	}

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", rl("history"), txHandler.List)
		transactions.GET("/summary", rl("history"), txHandler.Summary)
	}

	return r
}
