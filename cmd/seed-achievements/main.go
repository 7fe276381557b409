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
	file := flag.String("file", "", "YAML catalog to load (defaults to the built-in sample catalog)")
	check := flag.Bool("check", false, "validate the catalog without touching the database")
	flag.Parse()

	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Println("error: cannot build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	entries := services.DefaultCatalog()
	source := "built-in catalog"
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatal("failed to open catalog", "file", *file, "error", err)
		}
		entries, err = services.LoadCatalog(f)
		f.Close()
		if err != nil {
			log.Fatal("failed to parse catalog", "file", *file, "error", err)
		}
		source = *file
	}

	fmt.Printf("Found %d achievements in %s\n\n", len(entries), source)

	if *check {
		exitCode := 0
		validator := services.NewCatalogService(nil, log)
		for i, entry := range entries {
			if err := validator.Validate(entry); err != nil {
				fmt.Printf("%s:%d (%s): %v\n", source, i+1, entry.Name, err)
				exitCode = 1
				continue
			}
			fmt.Printf("%s:%d (%s): OK\n", source, i+1, entry.Name)
		}
		os.Exit(exitCode)
	}

	if err := database.InitDB(log); err != nil {
		log.Fatal("database init failed", "error", err)
	}
	defer database.CloseDB()

	catalog := services.NewCatalogService(database.GetDB(), log)
	report, err := catalog.Seed(context.Background(), entries)
	if err != nil {
		log.Fatal("seeding failed", "error", err)
	}

	for _, name := range report.Created {
		fmt.Printf("Created achievement: %s\n", name)
	}
	for _, name := range report.Skipped {
		fmt.Printf("Achievement already exists: %s\n", name)
	}
	fmt.Printf("\nDone: %d created, %d already present\n", len(report.Created), len(report.Skipped))
}
