package main

import (
	"lms/config"
	"lms/database"
	"lms/jobs"
	adminRoutes "lms/routers/adminRoutes"
	authRoutes "lms/routers/authRoutes"
	cohortRoutes "lms/routers/cohortRoutes"
	progressRoutes "lms/routers/progressRoutes"
	quizRoutes "lms/routers/quizRoutes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"log"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",  // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	cohortRoutes.SetupCohortRoutes(app)
	progressRoutes.SetupProgressRoutes(app)
	quizRoutes.SetupQuizRoutes(app)
	adminRoutes.SetupAdminRoutes(app)

	// Sweep for expired quiz attempts in the background
	jobs.StartAttemptScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
