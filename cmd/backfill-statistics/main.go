package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gamify/database"
	"gamify/logger"
	"gamify/services"

	"github.com/joho/godotenv"
)

func main() {
	userID := flag.Uint("user", 0, "only create statistics for this user id (default: every user)")
	flag.Parse()

	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Println("error: cannot build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := database.InitDB(log); err != nil {
		log.Fatal("database init failed", "error", err)
	}
	defer database.CloseDB()
	db := database.GetDB()

	evaluator := services.NewAchievementEvaluator(db, log, nil)
	achievements := services.NewAchievementService(db, log, evaluator,
		services.NewLogPublisher(log), services.NewLogNotifier(log),
		services.WithSyncDispatch())
	simulation := services.NewTaskSimulationService(db, log, achievements)

	report, err := simulation.BackfillStatistics(context.Background(), uint(*userID))
	if err != nil {
		log.Fatal("backfill failed", "user_id", *userID, "error", err)
	}

	for _, name := range report.Created {
		fmt.Printf("✓ Created stats for user: %s\n", name)
	}
	for _, name := range report.Existing {
		fmt.Printf("- Stats already exist for user: %s\n", name)
	}
	fmt.Printf("\nCreated statistics for %d users\n", len(report.Created))
}
