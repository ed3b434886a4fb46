package main

import (
	"log"
	"time"

	"jeopardy/config"
	"jeopardy/handlers"
	"jeopardy/middleware"
	"jeopardy/models"
	"jeopardy/routes"
	"jeopardy/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database, waiting for it to come up
	db, err := config.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.Player{},
		&models.Category{},
		&models.Question{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	// Seed default questions on first run
	if err := services.SeedQuestions(db); err != nil {
		log.Fatal("Failed to seed questions: ", err)
	}

	// Load the question bank once; it is read-only afterwards
	bank, err := services.LoadQuestionBank(db)
	if err != nil {
		log.Fatal("Failed to load questions: ", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret)
	playerService := services.NewPlayerService(db)
	stateStore := services.NewStateStore(redisClient)

	hub := services.NewHub()
	gameManager := services.NewGameManager(hub, bank, playerService, stateStore,
		time.Duration(cfg.QuestionSeconds)*time.Second)

	// Initialize handlers
	playerHandler := handlers.NewPlayerHandler(playerService, stateStore)

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.CORS())

	routes.SetupRoutes(router, playerHandler, hub, gameManager, authService)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
