package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"jeopardy/models"

	"github.com/stretchr/testify/require"
)

// fakeChannel is an in-memory Channel. Outbound messages are decoded
// and kept for inspection; inbound messages are fed through a buffered
// channel.
type fakeChannel struct {
	mu       sync.Mutex
	sent     []map[string]any
	failSend bool
	closed   bool
	inbox    chan []byte
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{inbox: make(chan []byte, 16)}
}

func (f *fakeChannel) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.failSend {
		return ErrChannelClosed
	}
	var decoded map[string]any
	if err := json.Unmarshal(message, &decoded); err != nil {
		return err
	}
	f.sent = append(f.sent, decoded)
	return nil
}

func (f *fakeChannel) Receive() ([]byte, error) {
	data, ok := <-f.inbox
	if !ok {
		return nil, ErrChannelClosed
	}
	return data, nil
}

func (f *fakeChannel) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbox)
	}
	return nil
}

func (f *fakeChannel) messages(msgType string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []map[string]any
	for _, msg := range f.sent {
		if msg["Type"] == msgType {
			matched = append(matched, msg)
		}
	}
	return matched
}

func (f *fakeChannel) last(msgType string) map[string]any {
	matched := f.messages(msgType)
	if len(matched) == 0 {
		return nil
	}
	return matched[len(matched)-1]
}

func (f *fakeChannel) count(msgType string) int {
	return len(f.messages(msgType))
}

type stubAuth struct {
	player *models.Player
	err    error
}

func (s stubAuth) Authenticate(username, password string) (*models.Player, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.player, "test-token", nil
}

func (s stubAuth) Register(username, password string) (*models.Player, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.player, "test-token", nil
}

func testPack() *CustomPack {
	return &CustomPack{Categories: []CustomCategory{
		{Name: "Capitals", Questions: []CustomQuestion{
			{Text: "What is the capital of France?", Answer: "Paris", Price: 200},
			{Text: "What is the capital of Japan?", Answer: "Tokyo", Price: 400},
		}},
		{Name: "Math", Questions: []CustomQuestion{
			{Text: "What is 2+2?", Answer: "4", Price: 100},
		}},
	}}
}

func testBank(t *testing.T) *QuestionBank {
	t.Helper()
	bank, err := ConvertCustomPack(testPack())
	require.NoError(t, err)
	return bank
}

func newTestManager(t *testing.T, questionTime time.Duration) (*Hub, *GameManager) {
	t.Helper()
	hub := NewHub()
	return hub, NewGameManager(hub, testBank(t), nil, nil, questionTime)
}

func newTestClient(hub *Hub, gm *GameManager, name string) (*Client, *fakeChannel) {
	ch := newFakeChannel()
	c := NewClient(hub, gm, stubAuth{}, ch)
	if name != "" {
		c.setName(name)
	}
	hub.Register(c)
	return c, ch
}

// startTwoPlayerGame builds the usual fixture: alice hosts a 2-player game,
// bob joins, the round auto-starts.
func startTwoPlayerGame(t *testing.T, hub *Hub, gm *GameManager) (host, joiner *Client, hostCh, joinerCh *fakeChannel) {
	t.Helper()
	host, hostCh = newTestClient(hub, gm, "")
	joiner, joinerCh = newTestClient(hub, gm, "")
	gm.CreateGame(host, 2, "alice", nil)
	gm.JoinGame(joiner, "bob")
	require.Equal(t, 1, hostCh.count("GameStarted"))
	require.Equal(t, 1, joinerCh.count("GameStarted"))
	return host, joiner, hostCh, joinerCh
}

// activeQuestion selects a question in the category and returns its id.
func activeQuestion(t *testing.T, gm *GameManager, c *Client, ch *fakeChannel, categoryID uint) uint {
	t.Helper()
	gm.SelectQuestion(c, categoryID)
	msg := ch.last("Question")
	require.NotNil(t, msg)
	return uint(msg["Id"].(float64))
}
