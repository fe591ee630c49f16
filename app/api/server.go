package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jessetrippe/clarify-rss/app/cfg"
	"github.com/jessetrippe/clarify-rss/app/ratelimit"
)

const userIDKey = "user_id"

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, auth Authenticator, limiter *ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, auth, limiter)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, auth Authenticator, limiter *ratelimit.Limiter) {
	r.GET("/health", handler.GetHealth)

	sync := r.Group("/api/sync")
	sync.Use(authMiddleware(auth))
	sync.Use(rateLimitMiddleware(limiter))
	{
		sync.POST("/pull", handler.SyncPull)
		sync.POST("/push", handler.SyncPush)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Clarify RSS",
			"version": cfg.GetVersion(),
			"endpoints": map[string]string{
				"pull":   "/api/sync/pull (POST, requires Authorization: Bearer <token>)",
				"push":   "/api/sync/push (POST, requires Authorization: Bearer <token>)",
				"health": "/health",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware rejects unauthenticated calls before any work and records
// the resolved user identity on the request context.
func authMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Provide a token in the Authorization: Bearer <token> header",
			})
			c.Abort()
			return
		}

		userID, err := auth.ResolveToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid token",
				"message": "The provided token is not valid",
			})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// rateLimitMiddleware caps sync requests per caller per window. Runs after
// auth so the key is the resolved user rather than a spoofable address.
func rateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(userIDKey)
		if key == "" {
			key = c.ClientIP()
		}

		result := limiter.Check(key)
		if !result.Allowed {
			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Too many requests",
				"retryAfter": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
