package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-release-api/config"
	"auction-release-api/controllers"
	"auction-release-api/monitor"
	"auction-release-api/routes"
	"auction-release-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize logging and database
	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	config.InitDB()

	// Optional Discord session for the publisher and notifier
	session := config.InitDiscord()
	if session != nil {
		defer session.Close()
	}

	// Wire the service layer
	timetable := services.DefaultTimetable()
	clock := services.SystemClock()
	store := services.NewSubmissionStore(config.DB, clock)
	publisher := services.NewDiscordPublisherFromEnv(session)
	notifier := services.NewUserNotifier(config.DB, session)

	review := services.NewReviewService(config.DB, timetable, notifier, publisher, clock)
	release := services.NewReleaseService(config.DB, store, publisher, notifier, timetable, clock)
	if secs := os.Getenv("RELEASE_POLL_SECONDS"); secs != "" {
		if d, err := time.ParseDuration(secs + "s"); err == nil {
			release.SetPollInterval(d)
		}
	}
	controllers.InitServices(store, review, release)

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.Logger())

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Setup routes and the monitor page
	routes.SetupRoutes(router)
	monitor.RegisterMonitorPage(router, timetable)

	// Run the release scheduler until shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		release.Run(ctx)
	}()

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}

	// Let the scheduler finish its in-flight item
	<-schedulerDone
	log.Println("Bye")
}
