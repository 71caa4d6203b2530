package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"inkstudio-backend/config"
	"inkstudio-backend/controllers"
	"inkstudio-backend/jobqueue"
	"inkstudio-backend/mailer"
	"inkstudio-backend/models"
	"inkstudio-backend/routes"
	"inkstudio-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()
	config.ConnectRedis()

	config.DB.AutoMigrate(
		&models.Salon{},
		&models.User{},
		&models.Client{},
		&models.Appointment{},
		&models.PlanDetails{},
		&models.FollowUpRequest{},
		&models.FollowUpSubmission{},
		&models.TattooHistoryRecord{},
		&models.PortfolioImage{},
	)
}

func main() {
	workers := 2
	if v := os.Getenv("QUEUE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}

	queue := jobqueue.NewQueue(config.Redis, workers)

	followUpService := services.NewFollowUpService(config.DB, queue, mailer.NewSMTPMailer())
	queue.RegisterHandler(jobqueue.JobTypeFollowUpEmail, followUpService.HandleJob)
	queue.Start()
	defer queue.Stop()

	controllers.SetFollowUpService(followUpService)

	reminderService := services.NewReminderService(config.DB)
	reminderService.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
