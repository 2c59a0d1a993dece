package memory

import (
	"context"
	"testing"
	"time"

	"quiz-battle-service/internal/domain"
)

func TestQuestionSourceSamplesSubject(t *testing.T) {
	source := NewQuestionSource(NewQuestionBank(sampleBank()), time.Minute)

	deck, err := source.FetchQuestions(context.Background(), "science", 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(deck) != 2 {
		t.Fatalf("expected deck of 2, got %d", len(deck))
	}
	for _, q := range deck {
		if q.Subject != "science" {
			t.Fatalf("expected science questions only, got %+v", q)
		}
	}
}

func TestQuestionSourceFallsBackToAnySubject(t *testing.T) {
	source := NewQuestionSource(NewQuestionBank(sampleBank()), time.Minute)

	deck, err := source.FetchQuestions(context.Background(), "geography", 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(deck) == 0 {
		t.Fatalf("expected any-subject fallback to fill the deck")
	}
}

func TestQuestionSourceEmptyBank(t *testing.T) {
	source := NewQuestionSource(NewQuestionBank(nil), time.Minute)

	if _, err := source.FetchQuestions(context.Background(), "science", 10); err != domain.ErrNoQuestionsAvailable {
		t.Fatalf("expected ErrNoQuestionsAvailable, got %v", err)
	}
}

func TestQuestionSourceSkipsInactive(t *testing.T) {
	bank := NewQuestionBank([]domain.Question{
		{ID: "q1", Subject: "science", Active: false, Options: []string{"a", "b"}},
	})
	source := NewQuestionSource(bank, time.Minute)

	if _, err := source.FetchQuestions(context.Background(), "science", 10); err != domain.ErrNoQuestionsAvailable {
		t.Fatalf("expected inactive questions excluded, got %v", err)
	}
}

func TestQuestionSourceCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewQuestionBank(sampleBank())}
	source := NewQuestionSource(loader, time.Minute)

	if _, err := source.FetchQuestions(context.Background(), "science", 2); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := source.FetchQuestions(context.Background(), "science", 2); err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected one loader call, got %d", loader.calls)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadSubject(ctx context.Context, subject string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadSubject(ctx, subject)
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{ID: "sci-1", Subject: "science", Text: "Red planet?", Options: []string{"Venus", "Mars"}, CorrectIndex: 1, Active: true},
		{ID: "sci-2", Subject: "science", Text: "Plant gas?", Options: []string{"CO2", "O2"}, CorrectIndex: 0, Active: true},
		{ID: "sci-3", Subject: "science", Text: "Bones?", Options: []string{"186", "206"}, CorrectIndex: 1, Active: true},
		{ID: "math-1", Subject: "mathematics", Text: "7x8?", Options: []string{"54", "56"}, CorrectIndex: 1, Active: true},
	}
}
