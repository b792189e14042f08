// Command release-cycle runs one close/publish cycle immediately and
// exits. Useful for recovering from a missed cutover or for testing a
// deployment's Discord wiring.
package main

import (
	"context"
	"log"
	"time"

	"auction-release-api/config"
	"auction-release-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	config.InitDB()

	session := config.InitDiscord()
	if session != nil {
		defer session.Close()
	}

	timetable := services.DefaultTimetable()
	clock := services.SystemClock()
	store := services.NewSubmissionStore(config.DB, clock)
	publisher := services.NewDiscordPublisherFromEnv(session)
	notifier := services.NewUserNotifier(config.DB, session)

	release := services.NewReleaseService(config.DB, store, publisher, notifier, timetable, clock)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := release.RunCycleNow(ctx); err != nil {
		log.Fatalf("release cycle failed: %v", err)
	}
	log.Println("release cycle completed")
}
