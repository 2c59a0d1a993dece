package domain

import "time"

// Player identifies one side of a battle. ConnID is the transport handle,
// UserID the account; keeping both decouples identity from the socket.
type Player struct {
	ConnID      string
	UserID      string
	DisplayName string
	Avatar      string
}

// Identity is the resolved account behind a connection token.
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	IsActive    bool   `json:"isActive"`
}

// Question models an MCQ question with exactly one correct option index.
type Question struct {
	ID           string   `json:"id"`
	Subject      string   `json:"subject"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Active       bool     `json:"active"`
}

// AnswerRecord is one player's final outcome for one question position.
// ChosenIndex is -1 when the question timed out without an answer.
type AnswerRecord struct {
	QuestionID   string  `json:"questionId"`
	ChosenIndex  int     `json:"chosenIndex"`
	IsCorrect    bool    `json:"isCorrect"`
	ResponseTime float64 `json:"responseTimeSeconds"`
	AwardedPoint bool    `json:"awardedPoint"`
}

// ResultQuestion pins the correct answer for one deck position in the
// persisted record.
type ResultQuestion struct {
	QuestionID   string `json:"questionId"`
	CorrectIndex int    `json:"correctAnswerIndex"`
}

// ResultPlayer is one player's side of a persisted battle.
type ResultPlayer struct {
	UserID      string         `json:"userId"`
	DisplayName string         `json:"name"`
	Avatar      string         `json:"avatar"`
	Score       int            `json:"score"`
	Answers     []AnswerRecord `json:"answers"`
}

// BattleResult is the immutable record written once per match.
type BattleResult struct {
	BattleID      string           `json:"battleId"`
	Subject       string           `json:"subject"`
	QuestionCount int              `json:"questionCount"`
	Questions     []ResultQuestion `json:"questions"`
	Players       []ResultPlayer   `json:"players"`
	WinnerID      *string          `json:"winnerId"`
	IsTie         bool             `json:"isTie"`
	Reason        string           `json:"reason"`
	StartedAt     time.Time        `json:"startedAt"`
	EndedAt       time.Time        `json:"endedAt"`
	Duration      float64          `json:"durationSeconds"`
}

// Termination reasons recorded on a BattleResult.
const (
	ReasonCompleted            = "completed"
	ReasonPlayerLeft           = "player_left"
	ReasonOpponentDisconnected = "opponent_disconnected"
)
