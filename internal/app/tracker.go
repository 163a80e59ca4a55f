package app

import (
	"time"

	"classroom-quiz/internal/domain"
)

// DefaultRoomCapacity is the number of concurrently connected participants a room admits.
const DefaultRoomCapacity = 60

// tracker is the roster of one room. It is owned by the room's coordinator goroutine
// and never locked.
type tracker struct {
	capacity     int
	now          func() time.Time
	order        []string
	participants map[string]*domain.Participant
}

func newTracker(capacity int, now func() time.Time) *tracker {
	if capacity <= 0 {
		capacity = DefaultRoomCapacity
	}
	return &tracker{
		capacity:     capacity,
		now:          now,
		participants: make(map[string]*domain.Participant),
	}
}

// join admits a new participant unless the room already holds capacity connected ones.
func (t *tracker) join(id, name string) (domain.Participant, error) {
	if t.connected() >= t.capacity {
		return domain.Participant{}, domain.ErrRoomFull
	}
	p := &domain.Participant{
		ID:       id,
		Name:     name,
		Status:   domain.Connected,
		JoinedAt: t.now(),
		Answers:  make(map[int]domain.Answer),
	}
	t.participants[id] = p
	t.order = append(t.order, id)
	return p.Clone(), nil
}

// disconnect flags the participant; it reports whether the status changed.
func (t *tracker) disconnect(id string) (bool, error) {
	p, ok := t.participants[id]
	if !ok {
		return false, domain.ErrParticipantNotFound
	}
	if p.Status == domain.Disconnected {
		return false, nil
	}
	p.Status = domain.Disconnected
	return true, nil
}

// record stores answer, replacing any earlier answer to the same question.
func (t *tracker) record(id string, answer domain.Answer) error {
	p, ok := t.participants[id]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	p.Answers[answer.QuestionID] = answer
	return nil
}

func (t *tracker) get(id string) (domain.Participant, bool) {
	p, ok := t.participants[id]
	if !ok {
		return domain.Participant{}, false
	}
	return p.Clone(), true
}

func (t *tracker) connected() int {
	n := 0
	for _, p := range t.participants {
		if p.Status == domain.Connected {
			n++
		}
	}
	return n
}

// snapshot returns every participant in join order, including disconnected ones.
func (t *tracker) snapshot() []domain.Participant {
	out := make([]domain.Participant, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.participants[id].Clone())
	}
	return out
}
