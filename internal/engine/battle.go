package engine

import (
	"sync"
	"time"

	"quiz-battle-service/internal/domain"
)

// Status is the battle lifecycle phase. It only ever advances.
type Status int

const (
	StatusCountdown Status = iota
	StatusInProgress
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusCountdown:
		return "countdown"
	case StatusInProgress:
		return "in_progress"
	default:
		return "completed"
	}
}

// playerState is one side of a battle, mutated only under the battle mutex.
type playerState struct {
	domain.Player
	score   int
	answers []domain.AnswerRecord
	gone    bool
}

// questionState is the ephemeral answer ledger for the question currently on
// the wire. It is dropped as soon as the question finalizes, so a late answer
// has nothing to attach to.
type questionState struct {
	start     time.Time
	answered  map[string]bool // connID -> answered this question
	correctBy string          // connID of the first correct answer, immutable once set
}

// Battle is the per-match state machine. All mutable fields are guarded by mu;
// timer callbacks re-validate status and position under mu so a stale fire is
// a no-op. At most one timer (countdown, question window, or intermission) is
// armed at any moment, and it is always stopped before the next one is armed.
type Battle struct {
	ID      string
	Subject string

	engine *Engine

	mu        sync.Mutex
	status    Status
	deck      []domain.Question
	idx       int
	players   [2]*playerState
	createdAt time.Time
	startedAt time.Time
	q         *questionState
	timer     *time.Timer
	leftEarly []string // conns that vanished before the deck arrived
}

func newBattle(id, subject string, pair [2]domain.Player, e *Engine) *Battle {
	return &Battle{
		ID:      id,
		Subject: subject,
		engine:  e,
		status:  StatusCountdown,
		players: [2]*playerState{
			{Player: pair[0]},
			{Player: pair[1]},
		},
		createdAt: e.now(),
	}
}

func (b *Battle) player(connID string) *playerState {
	for _, p := range b.players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (b *Battle) opponentOf(connID string) *playerState {
	for _, p := range b.players {
		if p.ConnID != connID {
			return p
		}
	}
	return nil
}

// beginCountdown installs the fetched deck and arms the countdown timer.
// Called once the asynchronous question fetch returns; no lock is held during
// the fetch itself.
func (b *Battle) beginCountdown(deck []domain.Question) {
	b.mu.Lock()
	if b.status != StatusCountdown {
		b.mu.Unlock()
		return
	}
	if len(b.leftEarly) > 0 {
		// A side vanished between dequeue and deck arrival; hand the
		// survivor back to the matchmaker instead of starting.
		b.status = StatusCompleted
		b.mu.Unlock()
		b.engine.retryPairing(b)
		return
	}
	b.deck = deck

	for _, p := range b.players {
		opp := b.opponentOf(p.ConnID)
		b.engine.notifier.Send(p.ConnID, Event{Type: EventMatched, Payload: MatchedPayload{
			BattleID:          b.ID,
			Subject:           b.Subject,
			Opponent:          OpponentInfo{ID: opp.UserID, Name: opp.DisplayName, Avatar: opp.Avatar},
			SecondsUntilStart: b.engine.cfg.Countdown.Seconds(),
			QuestionCount:     len(deck),
		}})
	}
	b.armTimerLocked(b.engine.cfg.Countdown, b.start)
	b.mu.Unlock()
}

// start fires when the countdown elapses and transitions to InProgress.
func (b *Battle) start() {
	b.mu.Lock()
	if b.status != StatusCountdown || b.deck == nil {
		b.mu.Unlock()
		return
	}
	b.status = StatusInProgress
	b.startedAt = b.engine.now()
	b.broadcastLocked(Event{Type: EventStarted, Payload: StartedPayload{
		BattleID:         b.ID,
		Subject:          b.Subject,
		QuestionCount:    len(b.deck),
		TimeLimitSeconds: int(b.engine.cfg.QuestionTime.Seconds()),
	}})
	b.askLocked()
	b.mu.Unlock()
}

// askLocked broadcasts the question at the current position and opens its
// answer window.
func (b *Battle) askLocked() {
	question := b.deck[b.idx]
	b.q = &questionState{
		start:    b.engine.now(),
		answered: make(map[string]bool),
	}
	b.broadcastLocked(Event{Type: EventQuestion, Payload: QuestionPayload{
		QuestionID:       question.ID,
		Sequence:         b.idx + 1,
		Total:            len(b.deck),
		QuestionText:     question.Text,
		Options:          question.Options,
		TimeLimitSeconds: int(b.engine.cfg.QuestionTime.Seconds()),
	}})
	pos := b.idx
	b.armTimerLocked(b.engine.cfg.QuestionTime, func() { b.questionTimeout(pos) })
}

// questionTimeout closes the answer window if the question at pos is still
// open. A fire racing a dual-answer finalize finds q already nil and returns.
func (b *Battle) questionTimeout(pos int) {
	b.mu.Lock()
	if b.status != StatusInProgress || b.q == nil || b.idx != pos {
		b.mu.Unlock()
		return
	}
	res := b.finalizeLocked()
	b.mu.Unlock()
	if res != nil {
		b.engine.finishBattle(b, *res)
	}
}

// submitAnswer records a player's choice for the open question. Duplicate and
// late submissions are dropped without feedback.
func (b *Battle) submitAnswer(connID string, chosenIndex int) {
	b.mu.Lock()
	if b.status != StatusInProgress || b.q == nil {
		b.mu.Unlock()
		return
	}
	p := b.player(connID)
	if p == nil || b.q.answered[connID] {
		b.mu.Unlock()
		return
	}

	question := b.deck[b.idx]
	correct := chosenIndex >= 0 && chosenIndex == question.CorrectIndex
	elapsed := b.engine.now().Sub(b.q.start).Seconds()

	awarded := false
	if correct && b.q.correctBy == "" {
		b.q.correctBy = connID
		p.score++
		awarded = true
	}

	b.q.answered[connID] = true
	p.answers = append(p.answers, domain.AnswerRecord{
		QuestionID:   question.ID,
		ChosenIndex:  chosenIndex,
		IsCorrect:    correct,
		ResponseTime: elapsed,
		AwardedPoint: awarded,
	})

	b.broadcastLocked(Event{Type: EventPlayerAnswered, Payload: PlayerAnsweredPayload{
		UserID:       p.UserID,
		IsCorrect:    correct,
		ResponseTime: elapsed,
		AwardedPoint: awarded,
		RunningScore: p.score,
	}})

	var res *domain.BattleResult
	if len(b.q.answered) == len(b.players) {
		res = b.finalizeLocked()
	}
	b.mu.Unlock()
	if res != nil {
		b.engine.finishBattle(b, *res)
	}
}

// finalizeLocked irreversibly closes the open question: the timer is stopped
// first so no stale fire can finalize again, missing answers become timeout
// records, and the outcome is broadcast. Returns the finished result when the
// deck is exhausted.
func (b *Battle) finalizeLocked() *domain.BattleResult {
	b.stopTimerLocked()
	question := b.deck[b.idx]
	limit := b.engine.cfg.QuestionTime.Seconds()

	for _, p := range b.players {
		if len(p.answers) == b.idx {
			p.answers = append(p.answers, timeoutRecord(question.ID, limit))
		}
	}
	b.q = nil

	outcomes := make([]PlayerOutcome, 0, len(b.players))
	for _, p := range b.players {
		rec := p.answers[b.idx]
		outcomes = append(outcomes, PlayerOutcome{
			UserID:       p.UserID,
			AnswerIndex:  rec.ChosenIndex,
			IsCorrect:    rec.IsCorrect,
			AwardedPoint: rec.AwardedPoint,
			ResponseTime: rec.ResponseTime,
			Score:        p.score,
		})
	}
	b.broadcastLocked(Event{Type: EventQuestionResult, Payload: QuestionResultPayload{
		QuestionID:         question.ID,
		CorrectAnswerIndex: question.CorrectIndex,
		Players:            outcomes,
	}})

	b.idx++
	if b.idx == len(b.deck) {
		return b.completeLocked(domain.ReasonCompleted, nil)
	}

	pos := b.idx
	b.armTimerLocked(b.engine.cfg.Intermission, func() { b.nextQuestion(pos) })
	return nil
}

// nextQuestion fires after the intermission; it is a no-op when the battle has
// already left InProgress or moved past pos.
func (b *Battle) nextQuestion(pos int) {
	b.mu.Lock()
	if b.status != StatusInProgress || b.idx != pos || b.q != nil {
		b.mu.Unlock()
		return
	}
	b.askLocked()
	b.mu.Unlock()
}

// terminate ends the battle early because connID left or dropped. The
// remaining player becomes the forced winner; remaining questions are padded
// with timeout records so the persisted record always spans the full deck.
// Returns false when the battle was already complete.
func (b *Battle) terminate(connID, reason string) (domain.BattleResult, bool) {
	b.mu.Lock()
	if b.status == StatusCompleted {
		b.mu.Unlock()
		return domain.BattleResult{}, false
	}
	leaver := b.player(connID)
	if leaver == nil {
		b.mu.Unlock()
		return domain.BattleResult{}, false
	}
	leaver.gone = true

	if b.deck == nil {
		// Deck fetch still in flight; beginCountdown resolves the pairing.
		b.leftEarly = append(b.leftEarly, connID)
		b.mu.Unlock()
		return domain.BattleResult{}, false
	}

	b.stopTimerLocked()
	b.padRemainingLocked()

	var winner *playerState
	if opp := b.opponentOf(connID); opp != nil && !opp.gone {
		winner = opp
	}
	res := b.completeLocked(reason, winner)
	b.mu.Unlock()
	return *res, true
}

// padRemainingLocked synthesizes timeout records for the open question and
// every question never presented, for both players.
func (b *Battle) padRemainingLocked() {
	limit := b.engine.cfg.QuestionTime.Seconds()
	b.q = nil
	for _, p := range b.players {
		for i := len(p.answers); i < len(b.deck); i++ {
			p.answers = append(p.answers, timeoutRecord(b.deck[i].ID, limit))
		}
	}
}

// completeLocked transitions to Completed and builds the immutable result.
// forced is non-nil only for early terminations.
func (b *Battle) completeLocked(reason string, forced *playerState) *domain.BattleResult {
	b.status = StatusCompleted

	started := b.startedAt
	if started.IsZero() {
		started = b.createdAt
	}
	ended := b.engine.now()

	var winnerID *string
	isTie := false
	switch {
	case forced != nil:
		id := forced.UserID
		winnerID = &id
	case b.players[0].score > b.players[1].score:
		id := b.players[0].UserID
		winnerID = &id
	case b.players[1].score > b.players[0].score:
		id := b.players[1].UserID
		winnerID = &id
	case reason == domain.ReasonCompleted:
		isTie = true
	}

	questions := make([]domain.ResultQuestion, 0, len(b.deck))
	for _, q := range b.deck {
		questions = append(questions, domain.ResultQuestion{QuestionID: q.ID, CorrectIndex: q.CorrectIndex})
	}
	resultPlayers := make([]domain.ResultPlayer, 0, len(b.players))
	for _, p := range b.players {
		answers := make([]domain.AnswerRecord, len(p.answers))
		copy(answers, p.answers)
		resultPlayers = append(resultPlayers, domain.ResultPlayer{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Avatar:      p.Avatar,
			Score:       p.score,
			Answers:     answers,
		})
	}

	return &domain.BattleResult{
		BattleID:      b.ID,
		Subject:       b.Subject,
		QuestionCount: len(b.deck),
		Questions:     questions,
		Players:       resultPlayers,
		WinnerID:      winnerID,
		IsTie:         isTie,
		Reason:        reason,
		StartedAt:     started,
		EndedAt:       ended,
		Duration:      ended.Sub(started).Seconds(),
	}
}

// broadcastLocked pushes an event to both players. Notifier sends must never
// block, so holding the battle mutex here is safe.
func (b *Battle) broadcastLocked(evt Event) {
	for _, p := range b.players {
		if !p.gone {
			b.engine.notifier.Send(p.ConnID, evt)
		}
	}
}

func (b *Battle) armTimerLocked(d time.Duration, fn func()) {
	b.stopTimerLocked()
	b.timer = time.AfterFunc(d, fn)
}

func (b *Battle) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func timeoutRecord(questionID string, limit float64) domain.AnswerRecord {
	return domain.AnswerRecord{
		QuestionID:   questionID,
		ChosenIndex:  -1,
		IsCorrect:    false,
		ResponseTime: limit,
		AwardedPoint: false,
	}
}
