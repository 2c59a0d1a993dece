package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-battle-service/internal/domain"
)

const (
	fetchTimeout   = 10 * time.Second
	persistTimeout = 10 * time.Second
)

// QuestionSource supplies a random active deck for a subject. Implementations
// fall back to any-subject sampling when the requested subject is empty and
// return domain.ErrNoQuestionsAvailable when nothing is left.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, subject string, count int) ([]domain.Question, error)
}

// ResultStore persists the immutable record of a finished battle.
type ResultStore interface {
	SaveResult(ctx context.Context, res domain.BattleResult) error
}

// StatsStore applies a finished battle to a player's aggregate counters.
type StatsStore interface {
	RecordOutcome(ctx context.Context, userID string, won, tied bool, points int) error
}

// Notifier delivers an event to a single connection. Send must never block;
// the engine calls it while holding battle locks.
type Notifier interface {
	Send(connID string, evt Event)
}

// Config carries the battle timings and the accepted subject codes. An empty
// Subjects list accepts any non-empty code.
type Config struct {
	QuestionCount int
	Countdown     time.Duration
	QuestionTime  time.Duration
	Intermission  time.Duration
	Subjects      []string
}

func (c Config) withDefaults() Config {
	if c.QuestionCount <= 0 {
		c.QuestionCount = 10
	}
	if c.Countdown <= 0 {
		c.Countdown = 3 * time.Second
	}
	if c.QuestionTime <= 0 {
		c.QuestionTime = 15 * time.Second
	}
	if c.Intermission <= 0 {
		c.Intermission = 2 * time.Second
	}
	return c
}

// Engine owns the matchmaking queues and the active-battle table. The registry
// mutex guards only those maps; each battle serializes itself behind its own
// mutex, and neither lock is ever held across question fetches, persistence
// writes, or stat updates.
type Engine struct {
	cfg       Config
	questions QuestionSource
	results   ResultStore
	stats     StatsStore
	notifier  Notifier
	now       func() time.Time

	mu       sync.Mutex
	queue    *matchmaker
	battles  map[string]*Battle
	byConn   map[string]*Battle
	subjects map[string]bool
}

func New(cfg Config, questions QuestionSource, results ResultStore, stats StatsStore, notifier Notifier) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:       cfg,
		questions: questions,
		results:   results,
		stats:     stats,
		notifier:  notifier,
		now:       time.Now,
		queue:     newMatchmaker(),
		battles:   make(map[string]*Battle),
		byConn:    make(map[string]*Battle),
		subjects:  make(map[string]bool, len(cfg.Subjects)),
	}
	for _, s := range cfg.Subjects {
		e.subjects[s] = true
	}
	return e
}

// Config exposes the effective settings (after defaulting).
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) allowedSubject(subject string) bool {
	if subject == "" {
		return false
	}
	if len(e.subjects) == 0 {
		return true
	}
	return e.subjects[subject]
}

// JoinQueue appends a player to a subject queue and pairs the two oldest
// waiters as soon as the queue holds two.
func (e *Engine) JoinQueue(p domain.Player, subject string) error {
	if !e.allowedSubject(subject) {
		return domain.ErrInvalidSubject
	}

	e.mu.Lock()
	if _, ok := e.byConn[p.ConnID]; ok {
		e.mu.Unlock()
		return domain.ErrAlreadyInBattle
	}
	if e.queue.contains(p.ConnID) {
		e.mu.Unlock()
		return domain.ErrAlreadyQueued
	}
	e.queue.push(subject, p, e.now())
	b, matched := e.pairLocked(subject)
	waiters := e.queue.waiters(subject)
	e.mu.Unlock()

	e.broadcastPositions(subject, waiters)
	if matched {
		go e.setupBattle(b)
	}
	return nil
}

// pairLocked pops the two oldest waiters and registers a new battle for them.
func (e *Engine) pairLocked(subject string) (*Battle, bool) {
	pair, ok := e.queue.popPair(subject)
	if !ok {
		return nil, false
	}
	b := newBattle(uuid.NewString(), subject, pair, e)
	e.battles[b.ID] = b
	e.byConn[pair[0].ConnID] = b
	e.byConn[pair[1].ConnID] = b
	return b, true
}

// Leave handles an explicit leave message from a connection.
func (e *Engine) Leave(connID string) {
	e.depart(connID, domain.ReasonPlayerLeft)
}

// Disconnect handles a socket-level drop.
func (e *Engine) Disconnect(connID string) {
	e.depart(connID, domain.ReasonOpponentDisconnected)
}

func (e *Engine) depart(connID, reason string) {
	e.mu.Lock()
	if subject, ok := e.queue.remove(connID); ok {
		waiters := e.queue.waiters(subject)
		e.mu.Unlock()
		e.broadcastPositions(subject, waiters)
		return
	}
	b := e.byConn[connID]
	e.mu.Unlock()
	if b == nil {
		return
	}
	if res, done := b.terminate(connID, reason); done {
		e.finishBattle(b, res)
	}
}

// SubmitAnswer routes a choice to the caller's battle. Duplicate and late
// submissions vanish inside the battle; answering with no battle at all is a
// protocol error.
func (e *Engine) SubmitAnswer(connID string, chosenIndex int) error {
	e.mu.Lock()
	b := e.byConn[connID]
	e.mu.Unlock()
	if b == nil {
		return domain.ErrNotInBattle
	}
	b.submitAnswer(connID, chosenIndex)
	return nil
}

// setupBattle fetches the deck for a freshly paired battle. Runs on its own
// goroutine; no registry or battle lock is held across the fetch.
func (e *Engine) setupBattle(b *Battle) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	deck, err := e.questions.FetchQuestions(ctx, b.Subject, e.cfg.QuestionCount)
	if err != nil || len(deck) == 0 {
		if err != nil && err != domain.ErrNoQuestionsAvailable {
			log.Printf("fetch questions for battle %s: %v", b.ID, err)
		}
		e.abortPairing(b)
		return
	}
	b.beginCountdown(deck)
}

// abortPairing unwinds a battle whose deck could not be filled and returns
// both players to the unqueued state.
func (e *Engine) abortPairing(b *Battle) {
	b.mu.Lock()
	b.status = StatusCompleted
	var recipients []string
	for _, p := range b.players {
		if !p.gone {
			recipients = append(recipients, p.ConnID)
		}
	}
	b.mu.Unlock()

	e.mu.Lock()
	delete(e.battles, b.ID)
	for _, p := range b.players {
		delete(e.byConn, p.ConnID)
	}
	e.mu.Unlock()

	for _, connID := range recipients {
		e.notifier.Send(connID, Event{Type: EventError, Payload: ErrorPayload{
			Message: domain.ErrNoQuestionsAvailable.Error(),
		}})
	}
}

// retryPairing runs when one side vanished between dequeue and deck arrival.
// The survivor goes back to the front of the subject queue and pairing is
// attempted again immediately.
func (e *Engine) retryPairing(b *Battle) {
	b.mu.Lock()
	var survivors []domain.Player
	for _, p := range b.players {
		if !p.gone {
			survivors = append(survivors, p.Player)
		}
	}
	b.mu.Unlock()

	now := e.now()
	e.mu.Lock()
	delete(e.battles, b.ID)
	for _, p := range b.players {
		delete(e.byConn, p.ConnID)
	}
	for i := len(survivors) - 1; i >= 0; i-- {
		e.queue.pushFront(b.Subject, survivors[i], now)
	}
	nb, matched := e.pairLocked(b.Subject)
	waiters := e.queue.waiters(b.Subject)
	e.mu.Unlock()

	e.broadcastPositions(b.Subject, waiters)
	if matched {
		go e.setupBattle(nb)
	}
}

// finishBattle persists the result, applies stats best-effort per player, then
// notifies both sides and releases everything tied to the battle ID.
func (e *Engine) finishBattle(b *Battle, res domain.BattleResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := e.results.SaveResult(ctx, res); err != nil {
			log.Printf("persist battle %s: %v", res.BattleID, err)
		}
		for _, p := range res.Players {
			won := res.WinnerID != nil && *res.WinnerID == p.UserID
			if err := e.stats.RecordOutcome(ctx, p.UserID, won, res.IsTie, p.Score); err != nil {
				log.Printf("update stats for %s: %v", p.UserID, err)
			}
		}

		for i := range res.Players {
			me, opp := res.Players[i], res.Players[1-i]
			e.notifier.Send(b.players[i].ConnID, Event{Type: EventFinished, Payload: FinishedPayload{
				BattleID:      res.BattleID,
				Subject:       res.Subject,
				YourScore:     me.Score,
				OpponentScore: opp.Score,
				Opponent:      OpponentInfo{ID: opp.UserID, Name: opp.DisplayName, Avatar: opp.Avatar},
				WinnerID:      res.WinnerID,
				IsTie:         res.IsTie,
				Reason:        res.Reason,
				Duration:      res.Duration,
				QuestionCount: res.QuestionCount,
			}})
		}

		e.mu.Lock()
		delete(e.battles, b.ID)
		for _, p := range b.players {
			delete(e.byConn, p.ConnID)
		}
		e.mu.Unlock()
	}()
}

func (e *Engine) broadcastPositions(subject string, waiters []domain.Player) {
	for i, p := range waiters {
		e.notifier.Send(p.ConnID, Event{Type: EventQueued, Payload: QueuedPayload{
			Subject:   subject,
			Position:  i + 1,
			QueueSize: len(waiters),
		}})
	}
}
