package engine

// EventType enumerates every outbound message kind. The set is closed;
// transports switch on it rather than on raw strings from the wire.
type EventType string

const (
	EventQueued         EventType = "queued"
	EventMatched        EventType = "matched"
	EventStarted        EventType = "started"
	EventQuestion       EventType = "question"
	EventPlayerAnswered EventType = "player_answered"
	EventQuestionResult EventType = "question_result"
	EventFinished       EventType = "finished"
	EventError          EventType = "error"
)

// Event is the envelope pushed to a single connection.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// QueuedPayload reports a waiter's current spot after any queue mutation.
type QueuedPayload struct {
	Subject   string `json:"subject"`
	Position  int    `json:"position"`
	QueueSize int    `json:"queueSize"`
}

// OpponentInfo is the public identity shared with the other player.
type OpponentInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type MatchedPayload struct {
	BattleID          string       `json:"battleId"`
	Subject           string       `json:"subject"`
	Opponent          OpponentInfo `json:"opponent"`
	SecondsUntilStart float64      `json:"secondsUntilStart"`
	QuestionCount     int          `json:"questionCount"`
}

type StartedPayload struct {
	BattleID         string `json:"battleId"`
	Subject          string `json:"subject"`
	QuestionCount    int    `json:"questionCount"`
	TimeLimitSeconds int    `json:"perQuestionTimeLimitSeconds"`
}

// QuestionPayload never carries the correct answer index.
type QuestionPayload struct {
	QuestionID       string   `json:"questionId"`
	Sequence         int      `json:"sequence"`
	Total            int      `json:"total"`
	QuestionText     string   `json:"questionText"`
	Options          []string `json:"options"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

type PlayerAnsweredPayload struct {
	UserID       string  `json:"userId"`
	IsCorrect    bool    `json:"isCorrect"`
	ResponseTime float64 `json:"responseTimeSeconds"`
	AwardedPoint bool    `json:"awardedPoint"`
	RunningScore int     `json:"runningScore"`
}

// PlayerOutcome is one player's line in a question result broadcast.
type PlayerOutcome struct {
	UserID       string  `json:"userId"`
	AnswerIndex  int     `json:"answerIndex"`
	IsCorrect    bool    `json:"isCorrect"`
	AwardedPoint bool    `json:"awardedPoint"`
	ResponseTime float64 `json:"responseTime"`
	Score        int     `json:"score"`
}

type QuestionResultPayload struct {
	QuestionID         string          `json:"questionId"`
	CorrectAnswerIndex int             `json:"correctAnswerIndex"`
	Players            []PlayerOutcome `json:"players"`
}

type FinishedPayload struct {
	BattleID      string       `json:"battleId"`
	Subject       string       `json:"subject"`
	YourScore     int          `json:"yourScore"`
	OpponentScore int          `json:"opponentScore"`
	Opponent      OpponentInfo `json:"opponent"`
	WinnerID      *string      `json:"winnerId"`
	IsTie         bool         `json:"isTie"`
	Reason        string       `json:"reason"`
	Duration      float64      `json:"durationSeconds"`
	QuestionCount int          `json:"questionCount"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
