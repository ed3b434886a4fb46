package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parisPack() *CustomPack {
	return &CustomPack{Categories: []CustomCategory{
		{Name: "Capitals", Questions: []CustomQuestion{
			{Text: "What is the capital of France?", Answer: "Paris", Price: 200},
		}},
	}}
}

func TestCreateGameConflict(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, _ := newTestClient(hub, gm, "alice")
	other, otherCh := newTestClient(hub, gm, "bob")

	gm.CreateGame(host, 2, "alice", nil)
	gm.CreateGame(other, 2, "bob", nil)

	msg := otherCh.last("Error")
	require.NotNil(t, msg)
	assert.Equal(t, "a game already exists", msg["Message"])
}

func TestJoinGameFullAndCountsMonotonic(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, hostCh := newTestClient(hub, gm, "")
	gm.CreateGame(host, 3, "alice", nil)

	j1, _ := newTestClient(hub, gm, "")
	j2, _ := newTestClient(hub, gm, "")
	j3, j3Ch := newTestClient(hub, gm, "")

	gm.JoinGame(j1, "bob")
	gm.JoinGame(j2, "carol")

	joined := hostCh.messages("PlayerJoined")
	require.Len(t, joined, 2)
	assert.Equal(t, float64(2), joined[0]["CurrentPlayers"])
	assert.Equal(t, float64(3), joined[0]["MaxPlayers"])
	assert.Equal(t, float64(3), joined[1]["CurrentPlayers"])

	// roster hit the max, so the round auto-started
	require.Equal(t, 1, hostCh.count("GameStarted"))

	// the (maxPlayers+1)-th join attempt reports a full game
	gm.JoinGame(j3, "dave")
	assert.Equal(t, 1, j3Ch.count("GameFull"))
	assert.Equal(t, 0, j3Ch.count("GameStarted"))
}

func TestJoinWithoutGame(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	c, ch := newTestClient(hub, gm, "")

	gm.JoinGame(c, "bob")
	assert.Equal(t, 1, ch.count("NoGameAvailable"))
}

func TestJoinTwiceRejected(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, _ := newTestClient(hub, gm, "")
	gm.CreateGame(host, 3, "alice", nil)

	joiner, joinerCh := newTestClient(hub, gm, "")
	gm.JoinGame(joiner, "bob")
	gm.JoinGame(joiner, "bob")
	assert.Equal(t, 1, joinerCh.count("AlreadyJoined"))

	// a different connection reusing a taken name is rejected too
	impostor, impostorCh := newTestClient(hub, gm, "")
	gm.JoinGame(impostor, "alice")
	assert.Equal(t, 1, impostorCh.count("AlreadyJoined"))
}

func TestAutoStartBroadcastsZeroScores(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	_, _, hostCh, joinerCh := startTwoPlayerGame(t, hub, gm)

	for _, ch := range []*fakeChannel{hostCh, joinerCh} {
		started := ch.last("GameStarted")
		require.NotNil(t, started)

		players := started["Players"].([]any)
		require.Len(t, players, 2)
		for _, p := range players {
			assert.Equal(t, float64(0), p.(map[string]any)["Score"])
		}

		categories := started["Categories"].([]any)
		require.Len(t, categories, 2)
		first := categories[0].(map[string]any)
		assert.Equal(t, "Capitals", first["Name"])
		// question roster reveals ids and prices only
		stub := first["Questions"].([]any)[0].(map[string]any)
		assert.NotContains(t, stub, "Answer")
		assert.NotContains(t, stub, "Text")
	}
}

func TestCorrectAnswerScoresAndResolves(t *testing.T) {
	hub, gm := newTestManager(t, 40*time.Millisecond)
	host, hostCh := newTestClient(hub, gm, "")
	joiner, joinerCh := newTestClient(hub, gm, "")
	gm.CreateGame(host, 2, "alice", parisPack())
	gm.JoinGame(joiner, "bob")

	questionID := activeQuestion(t, gm, host, hostCh, 1)

	// comparison trims whitespace and ignores case
	gm.SubmitAnswer(joiner, questionID, "  PARIS ")

	for _, ch := range []*fakeChannel{hostCh, joinerCh} {
		result := ch.last("AnswerResult")
		require.NotNil(t, result)
		assert.Equal(t, true, result["IsCorrect"])
		assert.Equal(t, float64(200), result["NewScore"])
		assert.Equal(t, "bob", result["PlayerName"])
		assert.NotContains(t, result, "CorrectAnswer")
		assert.Equal(t, 1, ch.count("QuestionCompleted"))
	}

	// the disarmed timer must not fire against the finished question
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, hostCh.count("QuestionTimeout"))
	assert.Equal(t, 200, joiner.score)
}

func TestAllWrongAnswersResolveWithoutTimer(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, joiner, hostCh, joinerCh := startTwoPlayerGame(t, hub, gm)

	questionID := activeQuestion(t, gm, host, hostCh, 2) // Math, 100 points, answer "4"

	gm.SubmitAnswer(host, questionID, "5")
	result := joinerCh.last("AnswerResult")
	require.NotNil(t, result)
	assert.Equal(t, false, result["IsCorrect"])
	assert.Equal(t, "4", result["CorrectAnswer"])
	assert.Equal(t, float64(-100), result["NewScore"])
	// one wrong answer of two players does not resolve the question
	assert.Equal(t, 0, hostCh.count("QuestionCompleted"))

	gm.SubmitAnswer(joiner, questionID, "6")
	assert.Equal(t, 1, hostCh.count("QuestionCompleted"))
	assert.Equal(t, 0, hostCh.count("QuestionTimeout"))
	assert.Equal(t, -100, host.score)
	assert.Equal(t, -100, joiner.score)
}

func TestSecondAnswerFromSamePlayerRejected(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, _, hostCh, _ := startTwoPlayerGame(t, hub, gm)

	questionID := activeQuestion(t, gm, host, hostCh, 2)
	gm.SubmitAnswer(host, questionID, "5")
	gm.SubmitAnswer(host, questionID, "4")

	msg := hostCh.last("Error")
	require.NotNil(t, msg)
	assert.Equal(t, "you already answered this question", msg["Message"])
	// the second submission must not touch the score
	assert.Equal(t, -100, host.score)
}

func TestTimeoutResolvesAndLateAnswerRejected(t *testing.T) {
	hub, gm := newTestManager(t, 40*time.Millisecond)
	host, _, hostCh, joinerCh := startTwoPlayerGame(t, hub, gm)

	questionID := activeQuestion(t, gm, host, hostCh, 2)
	time.Sleep(120 * time.Millisecond)

	timeout := joinerCh.last("QuestionTimeout")
	require.NotNil(t, timeout)
	assert.Equal(t, "4", timeout["CorrectAnswer"])
	assert.Equal(t, 1, hostCh.count("QuestionCompleted"))

	// a correct answer arriving after the timeout has no effect
	gm.SubmitAnswer(host, questionID, "4")
	msg := hostCh.last("Error")
	require.NotNil(t, msg)
	assert.Equal(t, "wrong question", msg["Message"])
	assert.Equal(t, 0, host.score)
}

func TestSelectConflicts(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, _, hostCh, _ := startTwoPlayerGame(t, hub, gm)

	questionID := activeQuestion(t, gm, host, hostCh, 2)

	gm.SelectQuestion(host, 1)
	msg := hostCh.last("Error")
	require.NotNil(t, msg)
	assert.Equal(t, "a question is already active", msg["Message"])

	gm.SelectQuestion(host, 99)
	assert.Equal(t, "a question is already active", hostCh.last("Error")["Message"])

	// resolve it, then the category with no questions left is refused
	gm.SubmitAnswer(host, questionID, "4")
	gm.SelectQuestion(host, 2)
	assert.Equal(t, "no unanswered questions left in this category", hostCh.last("Error")["Message"])

	gm.SelectQuestion(host, 99)
	assert.Equal(t, "category not found", hostCh.last("Error")["Message"])
}

func TestExhaustionEndsRoundExactlyOnce(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, hostCh := newTestClient(hub, gm, "")
	joiner, joinerCh := newTestClient(hub, gm, "")
	gm.CreateGame(host, 2, "alice", parisPack())
	gm.JoinGame(joiner, "bob")

	questionID := activeQuestion(t, gm, host, hostCh, 1)
	gm.SubmitAnswer(joiner, questionID, "paris")

	for _, ch := range []*fakeChannel{hostCh, joinerCh} {
		require.Equal(t, 1, ch.count("GameOver"))
		over := ch.last("GameOver")
		winner := over["Winner"].(map[string]any)
		assert.Equal(t, "bob", winner["PlayerName"])
		assert.Equal(t, float64(200), winner["Score"])

		players := over["Players"].([]any)
		require.Len(t, players, 2)
		// ranked by descending score
		assert.Equal(t, "bob", players[0].(map[string]any)["PlayerName"])
		assert.Equal(t, "alice", players[1].(map[string]any)["PlayerName"])
	}

	// the server is back to no-session, a new game can be created
	gm.CreateGame(host, 2, "alice", nil)
	assert.Equal(t, 2, hostCh.count("GameCreated"))
	assert.Equal(t, 0, hostCh.count("Error"))
}

func TestEmptyQuestionPoolEndsImmediately(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, hostCh := newTestClient(hub, gm, "")

	empty := &CustomPack{Categories: []CustomCategory{{Name: "Empty"}}}
	gm.CreateGame(host, 1, "solo", empty)

	require.Equal(t, 1, hostCh.count("GameStarted"))
	over := hostCh.last("GameOver")
	require.NotNil(t, over)
	assert.Nil(t, over["Winner"])
}

func TestHostDisconnectInLobbyTearsDown(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, hostCh := newTestClient(hub, gm, "")
	joiner, joinerCh := newTestClient(hub, gm, "")
	gm.CreateGame(host, 3, "alice", nil)
	gm.JoinGame(joiner, "bob")

	host.Cleanup()

	ended := joinerCh.last("GameEnded")
	require.NotNil(t, ended)
	assert.Equal(t, "host disconnected", ended["Reason"])
	assert.Equal(t, 0, hostCh.count("GameStarted"))
	assert.Equal(t, 0, joinerCh.count("GameStarted"))

	// back to no-session: the remaining player can host a new game
	gm.CreateGame(joiner, 2, "bob", nil)
	assert.Equal(t, 2, joinerCh.count("GameCreated"))
	assert.Equal(t, "bob", joinerCh.last("GameCreated")["HostName"])
}

func TestNonHostLeavingLobbyKeepsSession(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, hostCh := newTestClient(hub, gm, "")
	joiner, _ := newTestClient(hub, gm, "")
	gm.CreateGame(host, 3, "alice", nil)
	gm.JoinGame(joiner, "bob")

	joiner.Cleanup()
	assert.Equal(t, 0, hostCh.count("GameEnded"))

	// the vacated seat is usable again
	c3, _ := newTestClient(hub, gm, "")
	c4, _ := newTestClient(hub, gm, "")
	gm.JoinGame(c3, "carol")
	gm.JoinGame(c4, "dave")
	assert.Equal(t, 1, hostCh.count("GameStarted"))
}

func TestHostDisconnectMidRoundEndsGame(t *testing.T) {
	hub, gm := newTestManager(t, 40*time.Millisecond)
	host, joiner, hostCh, joinerCh := startTwoPlayerGame(t, hub, gm)

	activeQuestion(t, gm, host, hostCh, 2)
	host.Cleanup()

	require.Equal(t, 1, joinerCh.count("GameEnded"))

	gm.SelectQuestion(joiner, 1)
	assert.Equal(t, "no active game", joinerCh.last("Error")["Message"])

	// teardown disarmed the question timer
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, joinerCh.count("QuestionTimeout"))
}

func TestDisconnectShrinksAnswerQuorum(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, hostCh := newTestClient(hub, gm, "")
	p2, _ := newTestClient(hub, gm, "")
	p3, _ := newTestClient(hub, gm, "")
	gm.CreateGame(host, 3, "alice", nil)
	gm.JoinGame(p2, "bob")
	gm.JoinGame(p3, "carol")
	require.Equal(t, 1, hostCh.count("GameStarted"))

	questionID := activeQuestion(t, gm, host, hostCh, 2)
	gm.SubmitAnswer(host, questionID, "5")
	gm.SubmitAnswer(p2, questionID, "6")
	assert.Equal(t, 0, hostCh.count("QuestionCompleted"))

	// once carol leaves, everyone still connected has answered
	p3.Cleanup()
	assert.Equal(t, 1, hostCh.count("QuestionCompleted"))
}

func TestDirectStartWithoutLobby(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	c1, ch1 := newTestClient(hub, gm, "alice")
	_, ch2 := newTestClient(hub, gm, "bob")

	gm.StartGame(c1, 2)
	assert.Equal(t, 1, ch1.count("GameStarted"))
	assert.Equal(t, 1, ch2.count("GameStarted"))
}

func TestDirectStartNotEnoughPlayers(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	c1, ch1 := newTestClient(hub, gm, "alice")

	gm.StartGame(c1, 5)
	msg := ch1.last("Error")
	require.NotNil(t, msg)
	assert.Equal(t, "not enough players to start the game", msg["Message"])
	assert.Equal(t, 0, ch1.count("GameStarted"))
}

func TestStaleTimerGenerationIsNoop(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, _, hostCh, _ := startTwoPlayerGame(t, hub, gm)

	first := activeQuestion(t, gm, host, hostCh, 2)
	gm.SubmitAnswer(host, first, "4")
	second := activeQuestion(t, gm, host, hostCh, 1)

	// a timer left over from the first question must not resolve the second
	gm.onQuestionTimeout(gm.round, 1)
	assert.Equal(t, 0, hostCh.count("QuestionTimeout"))

	// the second question is still live and accepts answers
	gm.SubmitAnswer(host, second, "definitely wrong")
	result := hostCh.last("AnswerResult")
	require.NotNil(t, result)
	assert.Equal(t, float64(second), result["QuestionId"])
}

// Generation counters restart at 1 in every round, so a timer surviving a
// teardown can collide with the new round's counter. The round identity
// check keeps it inert.
func TestTimerFromPreviousRoundIsNoop(t *testing.T) {
	hub, gm := newTestManager(t, time.Hour)
	host, joiner, hostCh, joinerCh := startTwoPlayerGame(t, hub, gm)

	activeQuestion(t, gm, host, hostCh, 2)
	oldRound := gm.round

	host.Cleanup()
	require.Equal(t, 1, joinerCh.count("GameEnded"))

	third, thirdCh := newTestClient(hub, gm, "")
	gm.CreateGame(joiner, 2, "bob", nil)
	gm.JoinGame(third, "carol")
	require.Equal(t, 1, thirdCh.count("GameStarted"))

	questionID := activeQuestion(t, gm, joiner, joinerCh, 2)

	// same generation number, different round
	gm.onQuestionTimeout(oldRound, 1)
	assert.Equal(t, 0, joinerCh.count("QuestionTimeout"))
	assert.Equal(t, 0, joinerCh.count("QuestionCompleted"))

	gm.SubmitAnswer(third, questionID, "4")
	result := joinerCh.last("AnswerResult")
	require.NotNil(t, result)
	assert.Equal(t, true, result["IsCorrect"])
}
