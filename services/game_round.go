package services

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"jeopardy/models"
)

var (
	errQuestionActive   = errors.New("a question is already active")
	errCategoryNotFound = errors.New("category not found")
	errCategoryDone     = errors.New("no unanswered questions left in this category")
)

// GameRound is one play-through of a question pool. Invariants: at most one
// question is active at a time, and a question id in the answered set never
// becomes active again. The generation counter distinguishes successive
// questions within the round; the timeout callback checks it together with
// the round's identity, so a stale timer can resolve neither a later
// question nor one in a later round. All access happens under the
// GameManager mutex.
type GameRound struct {
	bank    *QuestionBank
	players []*Client

	current    *models.Question
	generation uint64
	answeredBy map[string]struct{} // player ids answered on the current question
	answered   map[uint]struct{}   // exhausted question ids
	timer      *time.Timer
}

func newGameRound(bank *QuestionBank, players []*Client) *GameRound {
	return &GameRound{
		bank:       bank,
		players:    players,
		answeredBy: make(map[string]struct{}),
		answered:   make(map[uint]struct{}),
	}
}

func (r *GameRound) seated(c *Client) bool {
	for _, p := range r.players {
		if p == c {
			return true
		}
	}
	return false
}

func (r *GameRound) connectedPlayers() []*Client {
	connected := make([]*Client, 0, len(r.players))
	for _, p := range r.players {
		if p.Connected() {
			connected = append(connected, p)
		}
	}
	return connected
}

// allConnectedAnswered reports whether every still-connected seated player
// has submitted an answer to the current question. Disconnected players do
// not count toward the quorum.
func (r *GameRound) allConnectedAnswered() bool {
	connected := r.connectedPlayers()
	if len(connected) == 0 {
		return false
	}
	for _, p := range connected {
		if _, ok := r.answeredBy[p.ID]; !ok {
			return false
		}
	}
	return true
}

// pickQuestion selects a random not-yet-answered question in the category.
func (r *GameRound) pickQuestion(categoryID uint) (*models.Question, error) {
	if r.current != nil {
		return nil, errQuestionActive
	}
	category, ok := r.bank.Categories[categoryID]
	if !ok {
		return nil, errCategoryNotFound
	}

	var candidates []*models.Question
	for i := range category.Questions {
		question := &category.Questions[i]
		if _, done := r.answered[question.ID]; !done {
			candidates = append(candidates, question)
		}
	}
	if len(candidates) == 0 {
		return nil, errCategoryDone
	}
	return candidates[rand.Intn(len(candidates))], nil
}

func (r *GameRound) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *GameRound) exhausted() bool {
	return len(r.answered) >= len(r.bank.Questions)
}

// categoryRoster builds the GameStarted payload: every category with its
// question ids and prices, answers omitted.
func (r *GameRound) categoryRoster() []CategoryInfo {
	infos := make([]CategoryInfo, 0, len(r.bank.Categories))
	for _, category := range r.bank.Categories {
		info := CategoryInfo{ID: category.ID, Name: category.Name}
		for _, question := range category.Questions {
			info.Questions = append(info.Questions, QuestionStub{ID: question.ID, Price: question.Price})
		}
		infos = append(infos, info)
	}
	// map iteration order is random, present categories in id order
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
