package routes

import (
	"github.com/gin-gonic/gin"

	"curvedex/internal/handlers"
	"curvedex/internal/middleware"
)

// TradingRateLimit applies per client to quotes and swaps.
var TradingRateLimit = middleware.RateLimiterConfig{
	RequestsPerSecond: 20,
	Burst:             40,
}

// SetupDexConfigRoutes sets up all routes related to Dex Config management
func SetupDexConfigRoutes(r *gin.Engine) {
	cfg := r.Group("/dex-config")
	{
		cfg.GET("", handlers.ListDexConfigs)
		cfg.GET("/:id", handlers.GetDexConfig)
		cfg.POST("", handlers.CreateDexConfig)
		cfg.PUT("/:id", handlers.UpdateDexConfig)
	}
}

// SetupDexPoolRoutes sets up pool, trading and launch routes
func SetupDexPoolRoutes(r *gin.Engine) {
	pool := r.Group("/dex-pool")
	{
		pool.GET("", handlers.ListDexPools)
		pool.GET("/:id", handlers.GetDexPool)
		pool.POST("", handlers.CreateDexPool)
		pool.GET("/:id/swaps", handlers.ListDexSwaps)
		pool.GET("/:id/launch-plan", handlers.GetDexLaunchPlan)
		pool.GET("/:id/launch", handlers.GetDexLaunch)
		pool.POST("/:id/launch", handlers.LaunchDexPool)
		pool.POST("/:id/withdraw-fees", handlers.WithdrawDexFees)
		pool.PUT("/:id/reserve-bound", handlers.UpdateDexReserveBound)
	}

	trading := r.Group("/dex-pool/:id")
	trading.Use(middleware.RateLimiterMiddleware(TradingRateLimit))
	{
		trading.POST("/quote", handlers.QuoteDexSwap)
		trading.POST("/swap", handlers.ExecuteDexSwap)
		trading.POST("/swap-base-input", handlers.SwapDexBaseInput)
		trading.POST("/swap-base-output", handlers.SwapDexBaseOutput)
	}
}

// SetupMintRoutes sets up mint registry and token account routes
func SetupMintRoutes(r *gin.Engine) {
	mint := r.Group("/mint")
	{
		mint.POST("", handlers.RegisterMint)
		mint.POST("/:address/sync", handlers.SyncMint)
		mint.POST("/:address/mint-to", handlers.MintTo)
	}

	account := r.Group("/token-account")
	{
		account.GET("", handlers.ListTokenAccounts)
		account.GET("/:address", handlers.GetTokenBalance)
	}
}
