package routes

import (
	"os"
	"strings"

	"inkstudio-backend/config"
	"inkstudio-backend/controllers"
	"inkstudio-backend/services"
	"inkstudio-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	origins := allowedOrigins()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	// Public healing follow-up pages, reached from the emailed link
	followUp := r.Group("/follow-up")
	{
		followUp.GET("/:token", controllers.GetFollowUp)
		followUp.POST("/:token", controllers.SubmitFollowUp)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Client routes
		clients := api.Group("/clients")
		{
			clients.POST("", controllers.CreateClient)
			clients.GET("", controllers.GetClients)
			clients.GET("/:id", controllers.GetClient)
			clients.PUT("/:id", controllers.UpdateClient)
			clients.DELETE("/:id", controllers.DeleteClient)
		}

		// Appointment routes
		appointments := api.Group("/appointments")
		{
			appointments.POST("", controllers.CreateAppointment)
			appointments.GET("", controllers.GetAppointments)
			appointments.GET("/:id", controllers.GetAppointment)
			appointments.PUT("/:id", controllers.UpdateAppointment)
			appointments.DELETE("/:id", controllers.DeleteAppointment)
		}

		// Treatment history routes
		history := api.Group("/history")
		{
			history.POST("", controllers.CreateHistoryRecord)
			history.GET("", controllers.GetHistoryRecords)
			history.GET("/:id", controllers.GetHistoryRecord)
			history.PUT("/:id", controllers.UpdateHistoryRecord)
			history.DELETE("/:id", controllers.DeleteHistoryRecord)
		}

		// Portfolio routes
		portfolio := api.Group("/portfolio")
		{
			portfolio.POST("", controllers.CreatePortfolioImage)
			portfolio.GET("", controllers.GetPortfolioImages)
			portfolio.PUT("/:id", controllers.UpdatePortfolioImage)
			portfolio.DELETE("/:id", controllers.DeletePortfolioImage)
		}

		// Plan and limit routes
		plan := api.Group("/plan")
		{
			plan.GET("", controllers.GetPlan)
			plan.GET("/usage", controllers.GetPlanUsage)
			plan.GET("/limits/:action", controllers.CheckLimit)
			plan.GET("/features/:feature", controllers.CheckFeature)
			plan.PUT("", controllers.UpgradePlan)
			plan.POST("/repair", controllers.RepairPlan)
		}

		// Reports routes, paid tiers only
		reportController := controllers.ReportController{}
		api.GET("/reports",
			controllers.RequireFeature(services.FeatureAdvancedStats),
			reportController.GetReportAnalytics)

		employees := api.Group("/employees")
		{
			employees.GET("", controllers.GetEmployees)          // GET /api/employees
			employees.POST("", controllers.AddEmployee)          // POST /api/employees
			employees.PUT("/:id", controllers.UpdateEmployee)    // PUT /api/employees/:id
			employees.DELETE("/:id", controllers.DeleteEmployee) // DELETE /api/employees/:id
		}
	}

	return r
}

func allowedOrigins() []string {
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		return strings.Split(env, ",")
	}
	return []string{"http://localhost:3000"}
}
