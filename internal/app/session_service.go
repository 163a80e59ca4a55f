package app

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"classroom-quiz/internal/domain"
	"classroom-quiz/internal/gift"
	"classroom-quiz/internal/metrics"
	"classroom-quiz/internal/report"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// EventPublisher forwards room lifecycle events to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Routing keys of the room lifecycle events.
const (
	RoutingRoomCreated  = "room.created"
	RoutingRoomLaunched = "room.launched"
	RoutingRoomEnded    = "room.ended"
)

// LifecycleEvent is the payload published for every room lifecycle change.
type LifecycleEvent struct {
	Room      string    `json:"room"`
	Mode      string    `json:"mode,omitempty"`
	QuizID    string    `json:"quizId,omitempty"`
	Questions int       `json:"questions,omitempty"`
	At        time.Time `json:"at"`
}

// LaunchRequest carries the content and pacing of a launch. Inline questions win over QuizID.
type LaunchRequest struct {
	Mode       domain.PacingMode
	QuizID     string
	Questions  []string
	StartIndex int
}

// SessionService contains the classroom session use cases used by the transports.
type SessionService struct {
	rooms   *Registry
	quizzes QuizRepository
	events  EventPublisher
	now     func() time.Time
}

// NewSessionService wires the registry with its collaborators. quizzes and events may be nil.
func NewSessionService(rooms *Registry, quizzes QuizRepository, events EventPublisher) *SessionService {
	return &SessionService{rooms: rooms, quizzes: quizzes, events: events, now: time.Now}
}

// Rooms exposes the registry for lifecycle management (sweeping, shutdown).
func (s *SessionService) Rooms() *Registry {
	return s.rooms
}

// CreateRoom opens a room and binds teacher as its teacher connection.
func (s *SessionService) CreateRoom(ctx context.Context, name string, teacher domain.Sink) (string, error) {
	c, err := s.rooms.Create(ctx, name, teacher)
	if err != nil {
		return "", err
	}
	s.publish(ctx, RoutingRoomCreated, LifecycleEvent{Room: c.Name(), At: s.now()})
	return c.Name(), nil
}

// JoinRoom admits a student into a room.
func (s *SessionService) JoinRoom(ctx context.Context, roomName, username string, sink domain.Sink) (domain.Participant, error) {
	c, err := s.rooms.Get(roomName)
	if err != nil {
		metrics.Joins.WithLabelValues(joinResult(err)).Inc()
		return domain.Participant{}, err
	}
	p, err := c.Join(ctx, username, sink)
	metrics.Joins.WithLabelValues(joinResult(err)).Inc()
	if err != nil {
		return domain.Participant{}, err
	}
	log.Printf("room %s: %s joined as %s", c.Name(), username, p.ID)
	return p, nil
}

// Launch loads, parses and starts the quiz of a room. Questions that cannot be parsed are
// skipped; the number of questions actually launched is returned.
func (s *SessionService) Launch(ctx context.Context, roomName string, req LaunchRequest) (int, error) {
	c, err := s.rooms.Get(roomName)
	if err != nil {
		return 0, err
	}

	raw := req.Questions
	if len(raw) == 0 && req.QuizID != "" {
		if s.quizzes == nil {
			return 0, domain.ErrQuizNotFound
		}
		quiz, err := s.quizzes.GetQuiz(ctx, req.QuizID)
		if err != nil {
			return 0, err
		}
		raw = quiz.Questions
	}

	questions := parseQuestions(c.Name(), raw)
	if len(questions) == 0 {
		return 0, domain.ErrNoParseableQuestions
	}
	if err := c.Launch(ctx, req.Mode, questions); err != nil {
		return 0, err
	}
	metrics.Launches.WithLabelValues(req.Mode.String()).Inc()

	if req.StartIndex != 0 {
		if err := c.JumpTo(ctx, req.StartIndex); err != nil {
			log.Printf("room %s: start at %d: %v", c.Name(), req.StartIndex, err)
		}
	}

	s.publish(ctx, RoutingRoomLaunched, LifecycleEvent{
		Room:      c.Name(),
		Mode:      req.Mode.String(),
		QuizID:    req.QuizID,
		Questions: len(questions),
		At:        s.now(),
	})
	return len(questions), nil
}

// Advance moves a teacher-paced room one question forward or back.
func (s *SessionService) Advance(ctx context.Context, roomName string, dir Direction) (int, error) {
	c, err := s.rooms.Get(roomName)
	if err != nil {
		return 0, err
	}
	return c.Advance(ctx, dir)
}

// JumpTo selects a question by index.
func (s *SessionService) JumpTo(ctx context.Context, roomName string, index int) error {
	c, err := s.rooms.Get(roomName)
	if err != nil {
		return err
	}
	return c.JumpTo(ctx, index)
}

// SubmitAnswer grades and records an answer of a participant.
func (s *SessionService) SubmitAnswer(ctx context.Context, roomName, participantID string, questionID int, value domain.Value) (domain.Answer, error) {
	c, err := s.rooms.Get(roomName)
	if err != nil {
		return domain.Answer{}, err
	}
	answer, err := c.SubmitAnswer(ctx, participantID, questionID, value)
	if err != nil {
		return domain.Answer{}, err
	}
	metrics.Answers.WithLabelValues(strconv.FormatBool(answer.IsCorrect)).Inc()
	return answer, nil
}

// Disconnect marks a participant as gone. A room that already ended is not an error.
func (s *SessionService) Disconnect(ctx context.Context, roomName, participantID string) error {
	c, err := s.rooms.Get(roomName)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.Disconnect(ctx, participantID)
}

// EndRoom ends a room and frees its name.
func (s *SessionService) EndRoom(ctx context.Context, roomName string) error {
	c, err := s.rooms.Get(roomName)
	if err != nil {
		return err
	}
	if err := c.End(ctx); err != nil {
		return err
	}
	s.publish(ctx, RoutingRoomEnded, LifecycleEvent{Room: c.Name(), At: s.now()})
	return nil
}

// Report aggregates the results of a room.
func (s *SessionService) Report(ctx context.Context, roomName string) (report.Report, error) {
	c, err := s.rooms.Get(roomName)
	if err != nil {
		return report.Report{}, err
	}
	return c.Report(ctx)
}

func (s *SessionService) publish(ctx context.Context, key string, ev LifecycleEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, key, ev); err != nil {
		log.Printf("room %s: publish %s: %v", ev.Room, key, err)
	}
}

func parseQuestions(roomName string, raw []string) []domain.Question {
	questions := make([]domain.Question, 0, len(raw))
	for i, text := range raw {
		q, err := gift.Parse(text)
		if err != nil {
			metrics.SkippedQuestions.Inc()
			log.Printf("room %s: skipping question %d: %v", roomName, i+1, err)
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

func joinResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrRoomFull):
		return "full"
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrInvalidRoomName):
		return "not_found"
	default:
		return "error"
	}
}
