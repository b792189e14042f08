package routes

import (
	"auction-release-api/controllers"
	"auction-release-api/middleware"
	"auction-release-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Auction Release API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Submissions (intake boundary)
			submissions := protected.Group("/submissions")
			{
				submissions.POST("", controllers.CreateSubmission)
				submissions.GET("/my", controllers.GetMySubmissions)
				submissions.GET("/:id", controllers.GetSubmission)
			}

			// Staff review (decision boundary)
			staff := protected.Group("/staff")
			staff.Use(middleware.RequireRole(models.RoleStaff, models.RoleAdmin))
			{
				staff.GET("/submissions/pending", controllers.ListPendingSubmissions)
				staff.POST("/submissions/:id/approve", controllers.ApproveSubmission)
				staff.POST("/submissions/:id/deny", controllers.DenySubmission)
			}

			// Administrative overrides
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/batches", controllers.ListBatches)
				admin.GET("/batches/:id", controllers.GetBatchDetails)
				admin.DELETE("/batches/:id", controllers.ClearBatch)
				admin.POST("/submissions/:id/force-release", controllers.ForceReleaseSubmission)
				admin.POST("/release-cycle/run", controllers.RunReleaseCycle)
			}
		}

	}

	// 404 handler for unknown routes
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Endpoint not found"})
	})
}
