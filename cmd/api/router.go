package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nutrifarm-backend/internal/shared/middleware"
	"nutrifarm-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupPricingRoutes(v1, c)
		setupOrderRoutes(v1, c)
		setupAdminOrderRoutes(v1, c)
	}

	return router
}

// ========================================
// PRICING & FLASH SALES
// ========================================
func setupPricingRoutes(v1 *gin.RouterGroup, c *container.Container) {
	v1.GET("/products/:id/price", c.PromotionHandler.GetProductPrice)

	flashSales := v1.Group("/flash-sales", middleware.AuthMiddleware(c.JWTManager))
	{
		flashSales.POST("/:id/claims", c.PromotionHandler.ClaimFlashSale)
	}
}

// ========================================
// ORDERS
// ========================================
func setupOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	orders := v1.Group("/orders", middleware.AuthMiddleware(c.JWTManager))
	{
		orders.POST("", c.OrderHandler.CreateOrder)
	}
}

func setupAdminOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin/orders",
		middleware.AuthMiddleware(c.JWTManager),
		middleware.AdminMiddleware(),
	)
	{
		admin.POST("/reconcile", c.OrderHandler.ReconcilePayments)
		admin.GET("/:id/history", c.OrderHandler.GetOrderHistory)
	}
}

// ========================================
// HEALTH
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		services := gin.H{"database": "ok", "redis": "ok"}

		if err := appCtx.DB.HealthCheck(ctx); err != nil {
			services["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := appCtx.Redis.HealthCheck(ctx); err != nil {
			services["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services":  services,
		})
	}
}
