package routes

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"curvedex/internal/metrics"
	"curvedex/internal/notify"
)

// SetupRouter initializes and returns the Gin router with all routes
// configured. hub and m are optional.
func SetupRouter(hub *notify.Hub, m *metrics.Metrics) *gin.Engine {
	r := gin.Default()

	// Add health check endpoint
	r.Any("/health", func(c *gin.Context) {
		c.String(200, "ok")
	})

	r.Use(cors(allowedOrigins(os.Getenv("ALLOWED_ORIGINS"))))

	SetupDexConfigRoutes(r)
	SetupDexPoolRoutes(r)
	SetupMintRoutes(r)
	if hub != nil {
		r.GET("/ws/events", gin.WrapH(hub))
	}
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	return r
}

// allowedOrigins parses a comma-separated list, e.g.
// "http://localhost:3000,http://localhost:3001"
func allowedOrigins(raw string) map[string]bool {
	out := make(map[string]bool)
	for _, o := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			out[trimmed] = true
		}
	}
	return out
}

func cors(allowed map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.Request.Header.Get("Origin"); allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		// Handle preflight requests
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
