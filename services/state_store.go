package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateKey = "game:current"
	stateTTL = 2 * time.Hour
)

// ErrNoSnapshot is returned by Load when no game is running.
var ErrNoSnapshot = errors.New("no game snapshot")

// GameSnapshot is a non-authoritative mirror of the live game, kept in Redis
// for the REST surface. The engine never reads it back; a process restart
// still drops any in-progress game.
type GameSnapshot struct {
	Phase             string       `json:"phase"`
	HostName          string       `json:"host_name,omitempty"`
	Players           []PlayerInfo `json:"players"`
	MaxPlayers        int          `json:"max_players,omitempty"`
	CurrentQuestionID uint         `json:"current_question_id,omitempty"`
	AnsweredQuestions int          `json:"answered_questions"`
	TotalQuestions    int          `json:"total_questions"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

type StateStore struct {
	redis *redis.Client
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{redis: client}
}

func (s *StateStore) Save(ctx context.Context, snapshot *GameSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal game snapshot: %w", err)
	}
	if err := s.redis.Set(ctx, stateKey, data, stateTTL).Err(); err != nil {
		return fmt.Errorf("store game snapshot: %w", err)
	}
	return nil
}

func (s *StateStore) Load(ctx context.Context) (*GameSnapshot, error) {
	data, err := s.redis.Get(ctx, stateKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	var snapshot GameSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal game snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *StateStore) Clear(ctx context.Context) error {
	return s.redis.Del(ctx, stateKey).Err()
}
