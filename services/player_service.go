package services

import (
	"fmt"

	"jeopardy/models"

	"gorm.io/gorm"
)

// PlayerService reads and updates account rows: profiles, the leaderboard
// and the end-of-round stat rollup.
type PlayerService struct {
	db *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{db: db}
}

// GameResult is one player's outcome of a finished round.
type GameResult struct {
	PlayerID uint
	Score    int
	Won      bool
}

func (s *PlayerService) GetByID(id uint) (*models.Player, error) {
	var player models.Player
	if err := s.db.First(&player, id).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *PlayerService) Leaderboard(limit int) ([]models.Player, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var players []models.Player
	err := s.db.Order("total_score DESC, wins DESC, username ASC").Limit(limit).Find(&players).Error
	return players, err
}

// RecordResults rolls a finished round into the lifetime stats. Each update
// is independent so one bad row does not drop the rest.
func (s *PlayerService) RecordResults(results []GameResult) error {
	var firstErr error
	for _, r := range results {
		wins := 0
		if r.Won {
			wins = 1
		}
		err := s.db.Model(&models.Player{}).Where("id = ?", r.PlayerID).Updates(map[string]interface{}{
			"total_games": gorm.Expr("total_games + 1"),
			"wins":        gorm.Expr("wins + ?", wins),
			"total_score": gorm.Expr("total_score + ?", r.Score),
		}).Error
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("record result for player %d: %w", r.PlayerID, err)
		}
	}
	return firstErr
}
