// Package main 数据库初始化工具
package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"novel-studio-api/internal/config"
	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/infrastructure/persistence/postgres"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting database bootstrap...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer client.Close()

	if err := client.DB().AutoMigrate(
		&entity.Project{},
		&entity.Outline{},
		&entity.Chapter{},
		&entity.Character{},
		&entity.GenerationHistory{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	fmt.Println("Database bootstrap completed.")
}
