package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"jeopardy/services"

	"github.com/gin-gonic/gin"
)

// PlayerHandler serves the read-only REST surface next to the websocket
// protocol: profiles, the lifetime leaderboard and the live-game snapshot.
type PlayerHandler struct {
	players *services.PlayerService
	store   *services.StateStore
}

func NewPlayerHandler(players *services.PlayerService, store *services.StateStore) *PlayerHandler {
	return &PlayerHandler{players: players, store: store}
}

func (h *PlayerHandler) GetProfile(c *gin.Context) {
	playerID, exists := c.Get("player_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	player, err := h.players.GetByID(playerID.(uint))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	c.JSON(http.StatusOK, player)
}

func (h *PlayerHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	players, err := h.players.Leaderboard(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, players)
}

func (h *PlayerHandler) CurrentGame(c *gin.Context) {
	snapshot, err := h.store.Load(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoSnapshot) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active game"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load game state"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
