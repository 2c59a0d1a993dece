package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-battle-service/internal/domain"
)

// QuestionLoader fetches the active question pool from a backing store.
type QuestionLoader interface {
	LoadSubject(ctx context.Context, subject string) ([]domain.Question, error)
	LoadAny(ctx context.Context) ([]domain.Question, error)
}

// QuestionSource caches subject pools with TTL and samples a random deck per
// battle. Falls back to the any-subject pool when the requested subject is
// empty.
type QuestionSource struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

// anyKey is the cache slot for the cross-subject pool.
const anyKey = "__any__"

func NewQuestionSource(loader QuestionLoader, ttl time.Duration) *QuestionSource {
	return &QuestionSource{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
	}
}

func (s *QuestionSource) FetchQuestions(ctx context.Context, subject string, count int) ([]domain.Question, error) {
	pool, err := s.pool(ctx, subject)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		pool, err = s.pool(ctx, anyKey)
		if err != nil {
			return nil, err
		}
	}
	if len(pool) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}
	return s.sample(pool, count), nil
}

func (s *QuestionSource) pool(ctx context.Context, key string) ([]domain.Question, error) {
	now := s.clock()

	s.mu.RLock()
	if entry, ok := s.cache[key]; ok && entry.expiresAt.After(now) {
		s.mu.RUnlock()
		return entry.questions, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		now := s.clock()
		s.mu.RLock()
		if entry, ok := s.cache[key]; ok && entry.expiresAt.After(now) {
			s.mu.RUnlock()
			return entry.questions, nil
		}
		s.mu.RUnlock()

		var questions []domain.Question
		var err error
		if key == anyKey {
			questions, err = s.loader.LoadAny(ctx)
		} else {
			questions, err = s.loader.LoadSubject(ctx, key)
		}
		if err != nil {
			return nil, err
		}

		ttl := s.ttlWithJitter()
		s.mu.Lock()
		s.cache[key] = cachedPool{questions: questions, expiresAt: now.Add(ttl)}
		s.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// sample shuffles a copy of the pool and takes up to count questions.
func (s *QuestionSource) sample(pool []domain.Question, count int) []domain.Question {
	deck := make([]domain.Question, len(pool))
	copy(deck, pool)
	s.mu.Lock()
	s.rnd.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	s.mu.Unlock()
	if count > 0 && count < len(deck) {
		deck = deck[:count]
	}
	return deck
}

func (s *QuestionSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

// QuestionBank is a static loader backed by an in-memory slice (tests/demos).
type QuestionBank struct {
	questions []domain.Question
}

func NewQuestionBank(questions []domain.Question) *QuestionBank {
	return &QuestionBank{questions: questions}
}

func (b *QuestionBank) LoadSubject(_ context.Context, subject string) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range b.questions {
		if q.Active && q.Subject == subject {
			out = append(out, q)
		}
	}
	return out, nil
}

func (b *QuestionBank) LoadAny(_ context.Context) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range b.questions {
		if q.Active {
			out = append(out, q)
		}
	}
	return out, nil
}
