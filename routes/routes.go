package routes

import (
	"log"
	"net/http"

	"jeopardy/handlers"
	"jeopardy/middleware"
	"jeopardy/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	playerHandler *handlers.PlayerHandler,
	hub *services.Hub,
	game *services.GameManager,
	auth *services.AuthService,
) {
	api := router.Group("/api")
	{
		api.GET("/leaderboard", playerHandler.Leaderboard)
		api.GET("/games/current", playerHandler.CurrentGame)

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(auth))
		{
			protected.GET("/auth/profile", playerHandler.GetProfile)
		}
	}

	// Game protocol endpoint: every connected client speaks the JSON
	// envelope protocol over this socket.
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := services.NewClient(hub, game, auth, services.NewWSChannel(conn))
		go client.Run()
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
