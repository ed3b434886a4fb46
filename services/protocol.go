package services

// Inbound message types. The envelope is decoded once at the connection
// boundary; anything outside this set is logged and dropped.
const (
	TypeLogin          = "Login"
	TypeRegister       = "Register"
	TypeCreateGame     = "CreateGame"
	TypeJoinGame       = "JoinGame"
	TypeStartGame      = "StartGame"
	TypeSelectQuestion = "SelectQuestion"
	TypeAnswer         = "Answer"
)

// Envelope is the single inbound wire shape. Field names are part of the
// protocol and case-sensitive.
type Envelope struct {
	Type            string      `json:"Type"`
	Username        string      `json:"Username,omitempty"`
	Password        string      `json:"Password,omitempty"`
	PlayerCount     int         `json:"playerCount,omitempty"`
	HostName        string      `json:"hostName,omitempty"`
	CustomQuestions *CustomPack `json:"customQuestions,omitempty"`
	PlayerName      string      `json:"playerName,omitempty"`
	CategoryID      uint        `json:"CategoryId,omitempty"`
	QuestionID      uint        `json:"QuestionId,omitempty"`
	Answer          string      `json:"Answer,omitempty"`
}

// CustomPack is a host-supplied question set sent with CreateGame instead of
// using the stored questions.
type CustomPack struct {
	Categories []CustomCategory `json:"categories"`
}

type CustomCategory struct {
	Name      string           `json:"name"`
	Questions []CustomQuestion `json:"questions"`
}

type CustomQuestion struct {
	Text   string `json:"text"`
	Answer string `json:"answer"`
	Price  int    `json:"price"`
}

// StatusMsg covers every reply that is just a type plus an optional text:
// Error, LoginFailed, RegisterFailed and the join conflicts
// (NoGameAvailable, GameAlreadyStarted, GameFull, AlreadyJoined).
type StatusMsg struct {
	Type    string `json:"Type"`
	Message string `json:"Message,omitempty"`
}

type LoginSuccessMsg struct {
	Type       string `json:"Type"`
	ID         uint   `json:"Id"`
	Username   string `json:"Username"`
	TotalGames int    `json:"TotalGames"`
	Wins       int    `json:"Wins"`
	TotalScore int    `json:"TotalScore"`
	Token      string `json:"Token,omitempty"`
}

type PlayerInfo struct {
	PlayerID   string `json:"PlayerId"`
	PlayerName string `json:"PlayerName"`
	Score      int    `json:"Score"`
}

type GameCreatedMsg struct {
	Type           string `json:"Type"`
	HostName       string `json:"HostName"`
	CurrentPlayers int    `json:"CurrentPlayers"`
	MaxPlayers     int    `json:"MaxPlayers"`
}

type PlayerJoinedMsg struct {
	Type           string `json:"Type"`
	PlayerID       string `json:"PlayerId"`
	PlayerName     string `json:"PlayerName"`
	CurrentPlayers int    `json:"CurrentPlayers,omitempty"`
	MaxPlayers     int    `json:"MaxPlayers,omitempty"`
}

type PlayerLeftMsg struct {
	Type       string `json:"Type"`
	PlayerID   string `json:"PlayerId"`
	PlayerName string `json:"PlayerName"`
}

// QuestionStub announces that a question exists (and what it is worth)
// without revealing its text or answer.
type QuestionStub struct {
	ID    uint `json:"Id"`
	Price int  `json:"Price"`
}

type CategoryInfo struct {
	ID        uint           `json:"Id"`
	Name      string         `json:"Name"`
	Questions []QuestionStub `json:"Questions"`
}

type GameStartedMsg struct {
	Type       string         `json:"Type"`
	Categories []CategoryInfo `json:"Categories"`
	Players    []PlayerInfo   `json:"Players"`
}

// QuestionMsg carries an activated question. The answer is deliberately
// never part of this message.
type QuestionMsg struct {
	Type         string `json:"Type"`
	ID           uint   `json:"Id"`
	CategoryID   uint   `json:"CategoryId"`
	CategoryName string `json:"CategoryName"`
	Text         string `json:"Text"`
	Price        int    `json:"Price"`
}

type AnswerResultMsg struct {
	Type          string `json:"Type"`
	PlayerID      string `json:"PlayerId"`
	PlayerName    string `json:"PlayerName"`
	QuestionID    uint   `json:"QuestionId"`
	IsCorrect     bool   `json:"IsCorrect"`
	NewScore      int    `json:"NewScore"`
	CorrectAnswer string `json:"CorrectAnswer,omitempty"`
	Answer        string `json:"Answer"`
}

type QuestionTimeoutMsg struct {
	Type          string `json:"Type"`
	CorrectAnswer string `json:"CorrectAnswer"`
}

type QuestionCompletedMsg struct {
	Type       string `json:"Type"`
	QuestionID uint   `json:"QuestionId"`
}

type GameOverMsg struct {
	Type    string       `json:"Type"`
	Winner  *PlayerInfo  `json:"Winner"`
	Players []PlayerInfo `json:"Players"`
}

type GameEndedMsg struct {
	Type   string `json:"Type"`
	Reason string `json:"Reason"`
}

func errorMsg(message string) StatusMsg {
	return StatusMsg{Type: "Error", Message: message}
}
