package router

import (
	"fmt"
	"strings"

	"github.com/mintcart/internal/config"
	publichandlers "github.com/mintcart/internal/http/handlers/public"
	"github.com/mintcart/internal/logger"
	"github.com/mintcart/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Storage.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "mc"
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
		Message:       "too many checkout attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/cart", publicHandler.GetCart)
		apiV1.POST("/cart/items", publicHandler.AddItem)
		apiV1.PUT("/cart/items", publicHandler.UpdateQuantity)
		apiV1.DELETE("/cart/items", publicHandler.RemoveItem)
		apiV1.DELETE("/cart", publicHandler.ClearCart)

		apiV1.GET("/notifications", publicHandler.ListNotifications)
		apiV1.DELETE("/notifications/:id", publicHandler.DismissNotification)

		apiV1.POST("/checkout", RateLimitMiddleware(c.Redis, checkoutRule, KeyBySession), publicHandler.Checkout)
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
