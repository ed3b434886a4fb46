package services

import (
	"time"
)

// GameSession is the pending lobby: the host, the target player count and
// the roster collecting toward it. All access happens under the GameManager
// mutex.
type GameSession struct {
	host       *Client
	hostName   string
	maxPlayers int
	roster     []*Client
	bank       *QuestionBank
	createdAt  time.Time
	started    bool
}

func (s *GameSession) has(c *Client) bool {
	for _, member := range s.roster {
		if member == c {
			return true
		}
	}
	return false
}

func (s *GameSession) hasName(name string) bool {
	for _, member := range s.roster {
		if member.Name() == name {
			return true
		}
	}
	return false
}

func (s *GameSession) remove(c *Client) {
	for i, member := range s.roster {
		if member == c {
			s.roster = append(s.roster[:i], s.roster[i+1:]...)
			return
		}
	}
}

func (s *GameSession) connectedRoster() []*Client {
	connected := make([]*Client, 0, len(s.roster))
	for _, member := range s.roster {
		if member.Connected() {
			connected = append(connected, member)
		}
	}
	return connected
}
