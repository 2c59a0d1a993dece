package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-battle-service/internal/domain"
)

// QuestionLoader fetches the active question pool from a backing store.
type QuestionLoader interface {
	LoadSubject(ctx context.Context, subject string) ([]domain.Question, error)
	LoadAny(ctx context.Context) ([]domain.Question, error)
}

// QuestionSource caches each subject's active pool in Redis as JSON and
// samples a random deck per battle. Pools are stored as:
//
//	SET battle:questions:{subject} {json} EX ttl
//
// with the cross-subject pool under battle:questions:__any__.
type QuestionSource struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

const anyKey = "__any__"

func NewQuestionSource(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionSource {
	return &QuestionSource{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
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
	cacheKey := s.cacheKey(key)

	raw, err := s.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var pool []domain.Question
		if err := json.Unmarshal(raw, &pool); err == nil {
			return pool, nil
		}
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := s.client.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var pool []domain.Question
			if err := json.Unmarshal(raw, &pool); err == nil {
				return pool, nil
			}
		}

		var pool []domain.Question
		if key == anyKey {
			pool, err = s.loader.LoadAny(ctx)
		} else {
			pool, err = s.loader.LoadSubject(ctx, key)
		}
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(pool); err == nil {
			_ = s.client.Set(ctx, cacheKey, data, s.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (s *QuestionSource) cacheKey(subject string) string {
	return "battle:questions:" + subject
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
	jitterMax := int64(s.ttl) / 10
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
