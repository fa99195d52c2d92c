package router

import (
	"github.com/blues/fes/internal/config"
	"github.com/blues/fes/internal/gateway"
	"github.com/blues/fes/internal/handler"
	"github.com/blues/fes/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, gw gateway.Gateway, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "freelance-escrow-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		projectHandler := handler.NewProjectHandler(logic.NewProjectLogic(db))
		escrowHandler := handler.NewEscrowHandler(logic.NewEscrowLogic(db, gw))
		milestoneHandler := handler.NewMilestoneHandler(logic.NewMilestoneLogic(db, gw))

		// 项目相关路由
		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)

			// 托管相关路由
			projects.POST("/:id/escrow", escrowHandler.CreateEscrow)
			projects.POST("/:id/escrow/verify", escrowHandler.VerifyEscrow)
			projects.DELETE("/:id/escrow", escrowHandler.ResetEscrow)
			projects.GET("/:id/escrow", escrowHandler.GetEscrowStatus)

			// 里程碑相关路由
			projects.POST("/:id/milestones", milestoneHandler.AddMilestone)
			projects.GET("/:id/milestones", milestoneHandler.GetProjectMilestones)
			projects.PUT("/:id/milestones/:index", milestoneHandler.ModifyMilestone)
			projects.DELETE("/:id/milestones/:index", milestoneHandler.RemoveMilestone)
			projects.POST("/:id/milestones/:index/complete", milestoneHandler.CompleteMilestone)
			projects.POST("/:id/milestones/:index/release", milestoneHandler.ReleaseMilestonePayment)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-User-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
