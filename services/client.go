package services

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"jeopardy/models"

	"github.com/google/uuid"
)

// Authenticator is the account collaborator the connection handler talks to.
// Implemented by AuthService; tests substitute a stub.
type Authenticator interface {
	Authenticate(username, password string) (*models.Player, string, error)
	Register(username, password string) (*models.Player, string, error)
}

// Client handles one connection: it owns the channel, runs the blocking
// receive loop, dispatches inbound envelopes and serializes replies. Game
// state it participates in (score, seat) is mutated only under the
// GameManager lock.
type Client struct {
	ID string

	hub  *Hub
	game *GameManager
	auth Authenticator
	ch   Channel

	mu      sync.Mutex
	name    string
	account *models.Player

	// score is guarded by the GameManager mutex, not by mu.
	score int

	connected atomic.Bool
	cleanup   sync.Once
}

func NewClient(hub *Hub, game *GameManager, auth Authenticator, ch Channel) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		game: game,
		auth: auth,
		ch:   ch,
	}
	c.connected.Store(true)
	return c
}

func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Client) Account() *models.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

func (c *Client) Connected() bool {
	return c.connected.Load()
}

func (c *Client) setName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

func (c *Client) setAccount(name string, account *models.Player) {
	c.mu.Lock()
	c.name = name
	c.account = account
	c.mu.Unlock()
}

// Run registers the client and services its receive loop until the
// connection dies, then runs the cleanup path exactly once.
func (c *Client) Run() {
	c.hub.Register(c)
	defer c.Cleanup()

	for c.connected.Load() {
		data, err := c.ch.Receive()
		if err != nil {
			if !errors.Is(err, ErrChannelClosed) {
				log.Printf("Client %s receive ended: %v", c.ID, err)
			}
			return
		}
		c.dispatch(data)
	}
}

// dispatch decodes one envelope and routes it. A malformed or unknown
// message is logged and dropped; it never terminates the connection.
func (c *Client) dispatch(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("Client %s sent malformed message: %v", c.ID, err)
		return
	}

	switch env.Type {
	case TypeLogin:
		c.handleLogin(env.Username, env.Password)
	case TypeRegister:
		c.handleRegister(env.Username, env.Password)
	case TypeCreateGame:
		c.game.CreateGame(c, env.PlayerCount, env.HostName, env.CustomQuestions)
	case TypeJoinGame:
		c.game.JoinGame(c, env.PlayerName)
	case TypeStartGame:
		c.game.StartGame(c, env.PlayerCount)
	case TypeSelectQuestion:
		c.game.SelectQuestion(c, env.CategoryID)
	case TypeAnswer:
		c.game.SubmitAnswer(c, env.QuestionID, env.Answer)
	default:
		log.Printf("Client %s sent unknown message type %q, dropped", c.ID, env.Type)
	}
}

func (c *Client) handleLogin(username, password string) {
	if username == "" || password == "" {
		c.Send(StatusMsg{Type: "LoginFailed", Message: "username and password are required"})
		return
	}

	player, token, err := c.auth.Authenticate(username, password)
	if err != nil {
		// A failed login never registers or overwrites an account.
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Printf("Login error for %q: %v", username, err)
		}
		c.Send(StatusMsg{Type: "LoginFailed", Message: "invalid username or password"})
		return
	}

	c.bindAccount(player, token)
}

func (c *Client) handleRegister(username, password string) {
	if len(username) < 3 {
		c.Send(StatusMsg{Type: "RegisterFailed", Message: "username must be at least 3 characters"})
		return
	}
	if len(password) < 6 {
		c.Send(StatusMsg{Type: "RegisterFailed", Message: "password must be at least 6 characters"})
		return
	}

	player, token, err := c.auth.Register(username, password)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			c.Send(StatusMsg{Type: "RegisterFailed", Message: "username already taken"})
			return
		}
		log.Printf("Register error for %q: %v", username, err)
		c.Send(StatusMsg{Type: "RegisterFailed", Message: "registration failed"})
		return
	}

	c.bindAccount(player, token)
}

func (c *Client) bindAccount(player *models.Player, token string) {
	c.setAccount(player.Username, player)
	log.Printf("Client %s logged in as %s", c.ID, player.Username)

	c.Send(LoginSuccessMsg{
		Type:       "LoginSuccess",
		ID:         player.ID,
		Username:   player.Username,
		TotalGames: player.TotalGames,
		Wins:       player.Wins,
		TotalScore: player.TotalScore,
		Token:      token,
	})
	c.hub.BroadcastExcept(PlayerJoinedMsg{
		Type:       "PlayerJoined",
		PlayerID:   c.ID,
		PlayerName: player.Username,
	}, c)
}

// Send marshals and delivers one message. Best effort: a failure marks the
// connection dead and closes the channel, which unblocks the read loop and
// triggers cleanup.
func (c *Client) Send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.sendRaw(data)
}

func (c *Client) sendRaw(data []byte) error {
	if !c.connected.Load() {
		return ErrChannelClosed
	}
	if err := c.ch.Send(data); err != nil {
		c.connected.Store(false)
		c.ch.Close()
		return err
	}
	return nil
}

// Cleanup is the single deterministic teardown path for a connection. Safe
// to call from any goroutine, runs at most once.
func (c *Client) Cleanup() {
	c.cleanup.Do(func() {
		c.connected.Store(false)
		c.ch.Close()
		c.hub.Remove(c)
		c.game.HandleDisconnect(c)

		if name := c.Name(); name != "" {
			log.Printf("Player %s (%s) disconnected", name, c.ID)
			c.hub.Broadcast(PlayerLeftMsg{
				Type:       "PlayerLeft",
				PlayerID:   c.ID,
				PlayerName: name,
			})
		}
	})
}
