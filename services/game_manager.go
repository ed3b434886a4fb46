package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

type gamePhase int

const (
	phaseNone gamePhase = iota
	phaseLobby
	phaseRound
)

// GameManager is the single authoritative state machine for the one game a
// server instance hosts: NoSession -> Lobby -> Round -> NoSession. One mutex
// guards every transition; operations mutate under the lock, queue outbound
// messages into an outbox and send after unlock so slow sockets never block
// state changes.
type GameManager struct {
	mu      sync.Mutex
	hub     *Hub
	bank    *QuestionBank
	players *PlayerService // optional, round stats rollup
	store   *StateStore    // optional, redis snapshot mirror

	questionTime time.Duration

	phase   gamePhase
	session *GameSession
	round   *GameRound
}

func NewGameManager(hub *Hub, bank *QuestionBank, players *PlayerService, store *StateStore, questionTime time.Duration) *GameManager {
	if questionTime <= 0 {
		questionTime = 60 * time.Second
	}
	return &GameManager{
		hub:          hub,
		bank:         bank,
		players:      players,
		store:        store,
		questionTime: questionTime,
	}
}

type outMsg struct {
	targets []*Client // nil means every registered client
	payload any
}

// outbox collects everything an operation wants to do after the lock is
// released: sends, stat rollups and the snapshot mirror update.
type outbox struct {
	msgs       []outMsg
	results    []GameResult
	snapshot   *GameSnapshot
	clearState bool
}

func (o *outbox) to(c *Client, payload any) {
	o.msgs = append(o.msgs, outMsg{targets: []*Client{c}, payload: payload})
}

func (o *outbox) toSet(targets []*Client, payload any) {
	if len(targets) == 0 {
		return
	}
	o.msgs = append(o.msgs, outMsg{targets: targets, payload: payload})
}

func (o *outbox) toAll(payload any) {
	o.msgs = append(o.msgs, outMsg{payload: payload})
}

func (m *GameManager) flush(out *outbox) {
	for _, msg := range out.msgs {
		if msg.targets == nil {
			m.hub.Broadcast(msg.payload)
		} else {
			m.hub.BroadcastTo(msg.targets, msg.payload)
		}
	}

	if len(out.results) > 0 && m.players != nil {
		if err := m.players.RecordResults(out.results); err != nil {
			log.Printf("Failed to record game results: %v", err)
		}
	}

	if m.store != nil && (out.clearState || out.snapshot != nil) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if out.clearState {
			if err := m.store.Clear(ctx); err != nil {
				log.Printf("Failed to clear game snapshot: %v", err)
			}
		} else if err := m.store.Save(ctx, out.snapshot); err != nil {
			log.Printf("Failed to store game snapshot: %v", err)
		}
	}
}

// CreateGame creates the single pending session. Fails if any session or
// round already exists. An invalid custom pack is logged and the stored
// questions are used instead.
func (m *GameManager) CreateGame(host *Client, playerCount int, hostName string, custom *CustomPack) {
	var out outbox
	m.mu.Lock()

	switch {
	case m.phase != phaseNone:
		out.to(host, errorMsg("a game already exists"))
	case playerCount < 1:
		out.to(host, errorMsg("invalid player count"))
	default:
		bank := m.bank
		if custom != nil {
			converted, err := ConvertCustomPack(custom)
			if err != nil {
				log.Printf("Invalid custom question pack from %s: %v, using stored questions", host.ID, err)
			} else {
				bank = converted
			}
		}

		if hostName != "" {
			host.setName(hostName)
		} else {
			hostName = host.Name()
		}

		m.session = &GameSession{
			host:       host,
			hostName:   hostName,
			maxPlayers: playerCount,
			roster:     []*Client{host},
			bank:       bank,
			createdAt:  time.Now(),
		}
		m.phase = phaseLobby
		log.Printf("Game created by %s for %d players", hostName, playerCount)

		out.toAll(GameCreatedMsg{
			Type:           "GameCreated",
			HostName:       hostName,
			CurrentPlayers: 1,
			MaxPlayers:     playerCount,
		})

		if len(m.session.roster) >= m.session.maxPlayers {
			m.startRoundLocked(&out)
		}
		if !out.clearState {
			out.snapshot = m.snapshotLocked()
		}
	}

	m.mu.Unlock()
	m.flush(&out)
}

// JoinGame adds the caller to the pending roster. When the roster reaches
// the requested player count the round starts automatically.
func (m *GameManager) JoinGame(c *Client, playerName string) {
	var out outbox
	m.mu.Lock()

	switch {
	case m.phase == phaseNone:
		out.to(c, StatusMsg{Type: "NoGameAvailable", Message: "no game to join"})
	case len(m.session.roster) >= m.session.maxPlayers:
		out.to(c, StatusMsg{Type: "GameFull", Message: "the game is full"})
	case m.phase == phaseRound || m.session.started:
		out.to(c, StatusMsg{Type: "GameAlreadyStarted", Message: "the game has already started"})
	case m.session.has(c) || (playerName != "" && m.session.hasName(playerName)):
		out.to(c, StatusMsg{Type: "AlreadyJoined", Message: "you have already joined this game"})
	default:
		if playerName != "" {
			c.setName(playerName)
		}
		m.session.roster = append(m.session.roster, c)
		log.Printf("Player %s joined the game (%d/%d)", c.Name(), len(m.session.roster), m.session.maxPlayers)

		out.toSet(m.session.roster, PlayerJoinedMsg{
			Type:           "PlayerJoined",
			PlayerID:       c.ID,
			PlayerName:     c.Name(),
			CurrentPlayers: len(m.session.roster),
			MaxPlayers:     m.session.maxPlayers,
		})

		if len(m.session.roster) >= m.session.maxPlayers {
			m.startRoundLocked(&out)
		}
		if !out.clearState {
			out.snapshot = m.snapshotLocked()
		}
	}

	m.mu.Unlock()
	m.flush(&out)
}

// StartGame transitions the lobby to an active round. With no lobby it
// falls back to a direct start over every connected client.
func (m *GameManager) StartGame(c *Client, playerCount int) {
	var out outbox
	m.mu.Lock()

	switch m.phase {
	case phaseRound:
		out.to(c, errorMsg("a game is already in progress"))
	case phaseLobby:
		if !m.session.has(c) {
			out.to(c, errorMsg("you are not in this game"))
			break
		}
		m.startRoundLocked(&out)
		if !out.clearState {
			out.snapshot = m.snapshotLocked()
		}
	default: // direct start, no lobby
		if playerCount < 1 {
			out.to(c, errorMsg("invalid player count"))
			break
		}
		players := connectedOnly(m.hub.Clients())
		if len(players) < playerCount {
			out.toAll(errorMsg("not enough players to start the game"))
			break
		}
		m.session = &GameSession{
			host:       c,
			hostName:   c.Name(),
			maxPlayers: playerCount,
			roster:     players,
			bank:       m.bank,
			createdAt:  time.Now(),
		}
		m.phase = phaseLobby
		m.startRoundLocked(&out)
		if !out.clearState {
			out.snapshot = m.snapshotLocked()
		}
	}

	m.mu.Unlock()
	m.flush(&out)
}

// startRoundLocked is the single lobby-to-round transition. It seats the
// connected roster, zeroes scores and announces the category roster.
func (m *GameManager) startRoundLocked(out *outbox) {
	s := m.session
	s.started = true

	players := s.connectedRoster()
	round := newGameRound(s.bank, players)
	for _, p := range players {
		p.score = 0
	}
	m.round = round
	m.phase = phaseRound
	log.Printf("Game started with %d players and %d questions", len(players), len(s.bank.Questions))

	out.toSet(players, GameStartedMsg{
		Type:       "GameStarted",
		Categories: round.categoryRoster(),
		Players:    playerInfos(players),
	})

	// an empty pool ends the round immediately, with no winner
	if len(s.bank.Questions) == 0 {
		m.endRoundLocked(out)
	}
}

// SelectQuestion activates a random unanswered question in the category and
// arms the question timer.
func (m *GameManager) SelectQuestion(c *Client, categoryID uint) {
	var out outbox
	m.mu.Lock()

	switch {
	case m.phase != phaseRound:
		out.to(c, errorMsg("no active game"))
	case !m.round.seated(c):
		out.to(c, errorMsg("you are not in this game"))
	default:
		question, err := m.round.pickQuestion(categoryID)
		if err != nil {
			out.to(c, errorMsg(err.Error()))
			break
		}

		r := m.round
		r.current = question
		r.generation++
		r.answeredBy = make(map[string]struct{})
		generation := r.generation
		r.timer = time.AfterFunc(m.questionTime, func() {
			m.onQuestionTimeout(r, generation)
		})
		log.Printf("Question %d activated in category %d for %d points", question.ID, categoryID, question.Price)

		out.toAll(QuestionMsg{
			Type:         "Question",
			ID:           question.ID,
			CategoryID:   question.CategoryID,
			CategoryName: r.bank.Categories[question.CategoryID].Name,
			Text:         question.Text,
			Price:        question.Price,
		})
		out.snapshot = m.snapshotLocked()
	}

	m.mu.Unlock()
	m.flush(&out)
}

// SubmitAnswer arbitrates one answer. First correct answer resolves the
// question for everyone; once every connected seated player has answered
// wrong, the question resolves without waiting for the timer.
func (m *GameManager) SubmitAnswer(c *Client, questionID uint, answer string) {
	var out outbox
	m.mu.Lock()

	r := m.round
	switch {
	case m.phase != phaseRound || r.current == nil || r.current.ID != questionID:
		out.to(c, errorMsg("wrong question"))
	case !r.seated(c):
		out.to(c, errorMsg("you are not in this game"))
	default:
		if _, already := r.answeredBy[c.ID]; already {
			out.to(c, errorMsg("you already answered this question"))
			break
		}
		r.answeredBy[c.ID] = struct{}{}

		question := r.current
		correct := strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(question.Answer))
		log.Printf("Answer from %s for question %d: %q (correct: %t)", c.Name(), question.ID, answer, correct)

		result := AnswerResultMsg{
			Type:       "AnswerResult",
			PlayerID:   c.ID,
			PlayerName: c.Name(),
			QuestionID: question.ID,
			IsCorrect:  correct,
			Answer:     answer,
		}

		if correct {
			c.score += question.Price
			result.NewScore = c.score
			r.stopTimer()
			out.toAll(result)
			m.resolveQuestionLocked(&out)
		} else {
			c.score -= question.Price
			result.NewScore = c.score
			result.CorrectAnswer = question.Answer
			out.toAll(result)
			if r.allConnectedAnswered() {
				r.stopTimer()
				m.resolveQuestionLocked(&out)
			}
		}
		if !out.clearState {
			out.snapshot = m.snapshotLocked()
		}
	}

	m.mu.Unlock()
	m.flush(&out)
}

// onQuestionTimeout fires from the question timer. The round identity and
// generation checks make it a no-op if the question already resolved by any
// other path, even when the timer slipped past Stop or an entirely new round
// started in the meantime.
func (m *GameManager) onQuestionTimeout(r *GameRound, generation uint64) {
	var out outbox
	m.mu.Lock()

	if m.phase == phaseRound && m.round == r && r.current != nil && r.generation == generation {
		log.Printf("Question %d timed out", m.round.current.ID)
		out.toAll(QuestionTimeoutMsg{
			Type:          "QuestionTimeout",
			CorrectAnswer: m.round.current.Answer,
		})
		m.resolveQuestionLocked(&out)
		if !out.clearState {
			out.snapshot = m.snapshotLocked()
		}
	}

	m.mu.Unlock()
	m.flush(&out)
}

// resolveQuestionLocked ends the active question's window: records it as
// answered, clears the per-question state and, when the pool is exhausted,
// ends the round.
func (m *GameManager) resolveQuestionLocked(out *outbox) {
	r := m.round
	question := r.current
	if question == nil {
		return
	}

	r.answered[question.ID] = struct{}{}
	r.current = nil
	r.answeredBy = make(map[string]struct{})

	out.toAll(QuestionCompletedMsg{Type: "QuestionCompleted", QuestionID: question.ID})

	if r.exhausted() {
		m.endRoundLocked(out)
	}
}

// endRoundLocked ranks the connected players (descending score, ties by
// encounter order), announces the winner and rolls stats into the accounts.
func (m *GameManager) endRoundLocked(out *outbox) {
	r := m.round
	connected := r.connectedPlayers()

	ranked := make([]*Client, len(connected))
	copy(ranked, connected)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	infos := playerInfos(ranked)
	var winner *PlayerInfo
	if len(r.bank.Questions) > 0 && len(infos) > 0 {
		w := infos[0]
		winner = &w
	}
	if winner != nil {
		log.Printf("Game over, winner: %s (%d points)", winner.PlayerName, winner.Score)
	} else {
		log.Printf("Game over, no winner")
	}

	out.toSet(connected, GameOverMsg{Type: "GameOver", Winner: winner, Players: infos})

	if len(r.bank.Questions) > 0 {
		for _, p := range r.players {
			account := p.Account()
			if account == nil {
				continue
			}
			won := winner != nil && winner.PlayerID == p.ID
			out.results = append(out.results, GameResult{PlayerID: account.ID, Score: p.score, Won: won})
		}
	}

	m.resetLocked(out)
}

// HandleDisconnect removes a departing client from whatever game state it
// belongs to. The host leaving tears the whole game down; a seated player
// leaving mid-question shrinks the answer quorum, which may resolve the
// question immediately.
func (m *GameManager) HandleDisconnect(c *Client) {
	var out outbox
	m.mu.Lock()

	switch m.phase {
	case phaseLobby:
		s := m.session
		if !s.has(c) {
			break
		}
		if c == s.host {
			out.toSet(remaining(s.connectedRoster(), c), GameEndedMsg{Type: "GameEnded", Reason: "host disconnected"})
			m.resetLocked(&out)
			break
		}
		s.remove(c)
		if len(s.connectedRoster()) == 0 {
			m.resetLocked(&out)
		} else {
			out.snapshot = m.snapshotLocked()
		}
	case phaseRound:
		r := m.round
		if !r.seated(c) {
			break
		}
		if m.session != nil && c == m.session.host {
			out.toSet(remaining(r.connectedPlayers(), c), GameEndedMsg{Type: "GameEnded", Reason: "host disconnected"})
			m.resetLocked(&out)
			break
		}
		if len(remaining(r.connectedPlayers(), c)) == 0 {
			// nobody left to play or notify
			m.resetLocked(&out)
			break
		}
		// the departed player no longer counts toward the quorum
		if r.current != nil && r.allConnectedAnswered() {
			r.stopTimer()
			m.resolveQuestionLocked(&out)
		}
		if !out.clearState {
			out.snapshot = m.snapshotLocked()
		}
	}

	m.mu.Unlock()
	m.flush(&out)
}

// resetLocked returns the manager to the no-session state.
func (m *GameManager) resetLocked(out *outbox) {
	if m.round != nil {
		m.round.stopTimer()
	}
	m.session = nil
	m.round = nil
	m.phase = phaseNone
	out.snapshot = nil
	out.clearState = true
}

func (m *GameManager) snapshotLocked() *GameSnapshot {
	switch m.phase {
	case phaseLobby:
		s := m.session
		return &GameSnapshot{
			Phase:          "lobby",
			HostName:       s.hostName,
			Players:        playerInfos(s.roster),
			MaxPlayers:     s.maxPlayers,
			TotalQuestions: len(s.bank.Questions),
			UpdatedAt:      time.Now(),
		}
	case phaseRound:
		r := m.round
		snapshot := &GameSnapshot{
			Phase:             "round",
			Players:           playerInfos(r.connectedPlayers()),
			AnsweredQuestions: len(r.answered),
			TotalQuestions:    len(r.bank.Questions),
			UpdatedAt:         time.Now(),
		}
		if m.session != nil {
			snapshot.HostName = m.session.hostName
			snapshot.MaxPlayers = m.session.maxPlayers
		}
		if r.current != nil {
			snapshot.CurrentQuestionID = r.current.ID
		}
		return snapshot
	}
	return nil
}

// playerInfos reads scores, so callers must hold the manager lock.
func playerInfos(clients []*Client) []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(clients))
	for _, c := range clients {
		infos = append(infos, PlayerInfo{PlayerID: c.ID, PlayerName: c.Name(), Score: c.score})
	}
	return infos
}

func connectedOnly(clients []*Client) []*Client {
	connected := clients[:0]
	for _, c := range clients {
		if c.Connected() {
			connected = append(connected, c)
		}
	}
	return connected
}

func remaining(clients []*Client, except *Client) []*Client {
	rest := make([]*Client, 0, len(clients))
	for _, c := range clients {
		if c != except {
			rest = append(rest, c)
		}
	}
	return rest
}
