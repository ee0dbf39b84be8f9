package main

import (
	"log"

	"library_admin/pkg/config"
	"library_admin/pkg/database"
	"library_admin/pkg/store"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting resource store...")

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	if err := store.Seed(db); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	server := store.Router(db)

	log.Printf("Resource store starting on :%s", cfg.StorePort)
	if err := server.Run(":" + cfg.StorePort); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
