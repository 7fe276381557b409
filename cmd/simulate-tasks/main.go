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
	userID := flag.Uint("user", 0, "user id to simulate tasks for")
	count := flag.Int("count", 5, "number of task completions (1-100)")
	streak := flag.Bool("streak", true, "advance the daily streak")
	flag.Parse()

	if *userID == 0 {
		fmt.Println("error: -user is required")
		flag.Usage()
		os.Exit(2)
	}

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

	result, err := simulation.SimulateTaskCompletions(context.Background(), uint(*userID), *count, *streak)
	if err != nil {
		log.Fatal("simulation failed", "user_id", *userID, "error", err)
	}

	fmt.Println(result.Message)
	fmt.Printf("Tasks completed: %d\n", result.TotalTasksCompleted)
	fmt.Printf("Current streak:  %d (longest %d)\n", result.CurrentStreak, result.LongestStreak)
	fmt.Printf("Total XP:        %d\n", result.TotalXP)
	fmt.Printf("Level:           %d\n", result.CurrentLevel)
	if len(result.UnlockedAchievements) == 0 {
		fmt.Println("\nNo new achievements unlocked")
		return
	}
	fmt.Printf("\nUnlocked %d achievement(s):\n", len(result.UnlockedAchievements))
	for _, a := range result.UnlockedAchievements {
		fmt.Printf("  %s (%s) +%d XP +%d coins\n", a.Name, a.Rarity, a.RewardXP, a.RewardCoins)
	}
}
