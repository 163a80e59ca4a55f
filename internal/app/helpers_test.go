package app_test

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"classroom-quiz/internal/app"
	"classroom-quiz/internal/domain"
)

// recordingSink records every event it accepts; with refuse set it behaves like a
// connection whose buffer is full.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	refuse bool
}

func (s *recordingSink) Send(ev domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refuse {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func (s *recordingSink) ofType(typ string) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Event
	for _, ev := range s.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

// trueFalseQuestions returns n questions whose correct answer is true.
func trueFalseQuestions(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{
			Title: fmt.Sprintf("Q%d", i+1),
			Text:  fmt.Sprintf("Statement %d", i+1),
			Key:   domain.TrueFalseKey{IsTrue: true},
		}
	}
	return out
}

// fixedOptions gives deterministic ids and a controllable clock.
func fixedOptions(capacity int) (app.RoomOptions, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)}
	var (
		mu sync.Mutex
		n  int
	)
	return app.RoomOptions{
		Capacity: capacity,
		Now:      clock.Now,
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return "p" + strconv.Itoa(n)
		},
	}, clock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
