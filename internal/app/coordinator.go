package app

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"classroom-quiz/internal/domain"
	"classroom-quiz/internal/grading"
	"classroom-quiz/internal/report"
	"github.com/google/uuid"
)

// RoomOptions tunes the coordinators created by a Registry.
type RoomOptions struct {
	Capacity int
	Now      func() time.Time
	NewID    func() string
}

func (o RoomOptions) withDefaults() RoomOptions {
	if o.Capacity <= 0 {
		o.Capacity = DefaultRoomCapacity
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Direction is a one-step move through a teacher-paced quiz.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// ParseDirection accepts "next" or "previous".
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "next":
		return Next, nil
	case "previous", "prev":
		return Previous, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", raw)
	}
}

// Coordinator owns one room. All reads and writes of room state run on a single
// goroutine that drains the command channel, so operations on one room are serialized
// and every connection observes broadcasts in the order they were issued.
type Coordinator struct {
	name     string
	commands chan command
	done     chan struct{}
	onEnd    func(*Coordinator)

	state      atomic.Int32
	lastActive atomic.Int64

	room *room
}

type command struct {
	fn       func(r *room) error
	reply    chan error
	readOnly bool
}

func newCoordinator(name string, opts RoomOptions, teacher domain.Sink, onEnd func(*Coordinator)) *Coordinator {
	opts = opts.withDefaults()
	c := &Coordinator{
		name:     name,
		commands: make(chan command),
		done:     make(chan struct{}),
		onEnd:    onEnd,
		room: &room{
			name:    name,
			state:   domain.RoomCreated,
			tracker: newTracker(opts.Capacity, opts.Now),
			teacher: teacher,
			sinks:   make(map[string]domain.Sink),
			now:     opts.Now,
			newID:   opts.NewID,
		},
	}
	c.lastActive.Store(opts.Now().UnixNano())
	go c.run()
	return c
}

// Name returns the normalized room name.
func (c *Coordinator) Name() string {
	return c.name
}

// State is safe to call from any goroutine.
func (c *Coordinator) State() domain.RoomState {
	return domain.RoomState(c.state.Load())
}

// LastActive is the time of the last command that changed the room.
func (c *Coordinator) LastActive() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

// Done is closed once the room has ended and its goroutine has exited.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

func (c *Coordinator) run() {
	defer close(c.done)
	for cmd := range c.commands {
		err := cmd.fn(c.room)
		c.room.flushStale()
		c.state.Store(int32(c.room.state))
		if !cmd.readOnly {
			c.lastActive.Store(c.room.now().UnixNano())
		}
		if c.room.state == domain.RoomEnded {
			if c.onEnd != nil {
				c.onEnd(c)
			}
			cmd.reply <- err
			return
		}
		cmd.reply <- err
	}
}

// do runs fn on the room goroutine. ctx only bounds the wait for the room to pick the
// command up; once handed over, the command never blocks and always runs to completion.
func (c *Coordinator) do(ctx context.Context, fn func(r *room) error) error {
	return c.submit(ctx, command{fn: fn})
}

// read is do for commands that only observe the room; they do not count as activity.
func (c *Coordinator) read(ctx context.Context, fn func(r *room) error) error {
	return c.submit(ctx, command{fn: fn, readOnly: true})
}

func (c *Coordinator) submit(ctx context.Context, cmd command) error {
	reply := make(chan error, 1)
	cmd.reply = reply
	select {
	case c.commands <- cmd:
	case <-c.done:
		return fmt.Errorf("room %s ended: %w", c.name, domain.ErrInvalidStateTransition)
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-reply
}

// Launch starts the quiz. Question IDs are reassigned as "1".."n" in order.
func (c *Coordinator) Launch(ctx context.Context, mode domain.PacingMode, questions []domain.Question) error {
	return c.do(ctx, func(r *room) error {
		if r.state != domain.RoomCreated {
			return fmt.Errorf("launch in %s room: %w", r.state, domain.ErrInvalidStateTransition)
		}
		if len(questions) == 0 {
			return domain.ErrNoParseableQuestions
		}
		r.questions = make([]domain.Question, len(questions))
		for i, q := range questions {
			q.ID = strconv.Itoa(i + 1)
			r.questions[i] = q
		}
		r.mode = mode
		r.current = 0
		r.state = domain.RoomActive

		switch mode {
		case domain.StudentPaced:
			r.broadcast(r.studentModeEvent(), "")
		default:
			r.broadcast(r.questionEvent(), "")
		}
		log.Printf("room %s: launched %s-paced with %d questions", r.name, mode, len(r.questions))
		return nil
	})
}

// Advance moves a teacher-paced quiz one question and returns the new index.
func (c *Coordinator) Advance(ctx context.Context, dir Direction) (int, error) {
	var index int
	err := c.do(ctx, func(r *room) error {
		if r.state != domain.RoomActive || r.mode != domain.TeacherPaced {
			return fmt.Errorf("advance in %s %s-paced room: %w", r.state, r.mode, domain.ErrInvalidStateTransition)
		}
		next := r.current + int(dir)
		if next < 0 || next >= len(r.questions) {
			return domain.ErrQuestionIndexOutOfRange
		}
		r.current = next
		index = next
		r.broadcast(r.questionEvent(), "")
		return nil
	})
	return index, err
}

// JumpTo selects any question of an active quiz. Participants are only told in
// teacher-paced mode; student-paced participants already hold every question.
func (c *Coordinator) JumpTo(ctx context.Context, index int) error {
	return c.do(ctx, func(r *room) error {
		if r.state != domain.RoomActive {
			return fmt.Errorf("jump in %s room: %w", r.state, domain.ErrInvalidStateTransition)
		}
		if index < 0 || index >= len(r.questions) {
			return domain.ErrQuestionIndexOutOfRange
		}
		r.current = index
		if r.mode == domain.TeacherPaced {
			r.broadcast(r.questionEvent(), "")
		}
		return nil
	})
}

// Join admits a participant with a fresh connection id. The sink first receives
// join-success, then, when the quiz is running, the catch-up question(s).
func (c *Coordinator) Join(ctx context.Context, name string, sink domain.Sink) (domain.Participant, error) {
	var joined domain.Participant
	err := c.do(ctx, func(r *room) error {
		p, err := r.tracker.join(r.newID(), name)
		if err != nil {
			return err
		}
		joined = p
		r.sinks[p.ID] = sink

		r.send(p.ID, sink, domain.Event{Type: domain.EventJoinSuccess, Payload: domain.JoinSuccessPayload{
			ParticipantID: p.ID,
			RoomName:      r.name,
			Participants:  publicRoster(r.tracker.snapshot()),
		}})
		if r.state == domain.RoomActive {
			r.catchUp(p.ID, sink)
		}

		joinedEvent := domain.Event{Type: domain.EventUserJoined, Payload: p.Public()}
		r.notifyTeacher(joinedEvent)
		r.broadcast(joinedEvent, p.ID)
		return nil
	})
	return joined, err
}

// SubmitAnswer grades value against the question named by questionID and records it,
// replacing any earlier answer of the participant to that question.
func (c *Coordinator) SubmitAnswer(ctx context.Context, participantID string, questionID int, value domain.Value) (domain.Answer, error) {
	var recorded domain.Answer
	err := c.do(ctx, func(r *room) error {
		if r.state != domain.RoomActive {
			return fmt.Errorf("answer in %s room: %w", r.state, domain.ErrInvalidStateTransition)
		}
		p, ok := r.tracker.get(participantID)
		if !ok {
			return domain.ErrParticipantNotFound
		}
		if questionID < 1 || questionID > len(r.questions) {
			return fmt.Errorf("question %d: %w", questionID, domain.ErrQuestionNotFound)
		}
		answer := domain.Answer{
			QuestionID:  questionID,
			Value:       value,
			IsCorrect:   grading.Evaluate(r.questions[questionID-1], value),
			SubmittedAt: r.now(),
		}
		if err := r.tracker.record(participantID, answer); err != nil {
			return err
		}
		recorded = answer
		r.notifyTeacher(domain.Event{Type: domain.EventSubmitAnswer, Payload: domain.AnswerRelayPayload{
			ParticipantID: participantID,
			Username:      p.Name,
			QuestionID:    questionID,
			Answer:        value,
			IsCorrect:     answer.IsCorrect,
		}})
		return nil
	})
	return recorded, err
}

// Disconnect flags a participant as gone. The roster entry and its answers stay.
func (c *Coordinator) Disconnect(ctx context.Context, participantID string) error {
	return c.do(ctx, func(r *room) error {
		delete(r.sinks, participantID)
		changed, err := r.tracker.disconnect(participantID)
		if err != nil {
			return err
		}
		if changed {
			r.announceDisconnect(participantID)
		}
		return nil
	})
}

// End terminates the room, tells every connection, and releases it from its registry.
func (c *Coordinator) End(ctx context.Context) error {
	return c.do(ctx, func(r *room) error {
		ev := domain.Event{Type: domain.EventEndQuiz, Payload: domain.EndQuizPayload{RoomName: r.name}}
		r.broadcast(ev, "")
		r.notifyTeacher(ev)
		r.state = domain.RoomEnded
		r.sinks = make(map[string]domain.Sink)
		r.teacher = nil
		r.stale = nil
		log.Printf("room %s: ended", r.name)
		return nil
	})
}

// Snapshot copies the room state for read-side consumers.
func (c *Coordinator) Snapshot(ctx context.Context) (domain.RoomSnapshot, error) {
	var snap domain.RoomSnapshot
	err := c.read(ctx, func(r *room) error {
		snap = domain.RoomSnapshot{
			Name:         r.name,
			State:        r.state,
			Mode:         r.mode,
			CurrentIndex: r.current,
			Questions:    append([]domain.Question(nil), r.questions...),
			Participants: r.tracker.snapshot(),
		}
		return nil
	})
	return snap, err
}

// Report aggregates a snapshot; the computation runs outside the room goroutine.
func (c *Coordinator) Report(ctx context.Context) (report.Report, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(snap), nil
}

// room is the mutable state of a Coordinator; only its goroutine touches it.
type room struct {
	name      string
	state     domain.RoomState
	mode      domain.PacingMode
	questions []domain.Question
	current   int
	tracker   *tracker
	teacher   domain.Sink
	sinks     map[string]domain.Sink
	stale     []string
	now       func() time.Time
	newID     func() string
}

func (r *room) questionEvent() domain.Event {
	return domain.Event{Type: domain.EventNextQuestion, Payload: domain.QuestionPayload{
		Index:    r.current,
		Question: r.questions[r.current].View(r.current),
	}}
}

func (r *room) studentModeEvent() domain.Event {
	views := make([]domain.QuestionView, len(r.questions))
	for i, q := range r.questions {
		views[i] = q.View(i)
	}
	return domain.Event{Type: domain.EventLaunchStudentMode, Payload: domain.StudentModePayload{Questions: views}}
}

// catchUp brings one late joiner to the current point without touching anyone else.
func (r *room) catchUp(id string, sink domain.Sink) {
	if r.mode == domain.StudentPaced {
		r.send(id, sink, r.studentModeEvent())
		return
	}
	r.send(id, sink, r.questionEvent())
}

// broadcast delivers ev to every connected participant except the one named by except.
func (r *room) broadcast(ev domain.Event, except string) {
	for _, id := range r.tracker.order {
		if id == except {
			continue
		}
		if sink, ok := r.sinks[id]; ok {
			r.send(id, sink, ev)
		}
	}
}

func (r *room) send(id string, sink domain.Sink, ev domain.Event) {
	if sink.Send(ev) {
		return
	}
	log.Printf("room %s: connection %s cannot keep up, dropping it", r.name, id)
	delete(r.sinks, id)
	r.stale = append(r.stale, id)
}

func (r *room) notifyTeacher(ev domain.Event) {
	if r.teacher == nil {
		return
	}
	if !r.teacher.Send(ev) {
		log.Printf("room %s: teacher connection cannot keep up, dropping it", r.name)
		r.teacher = nil
	}
}

func (r *room) announceDisconnect(id string) {
	ev := domain.Event{Type: domain.EventUserDisconnected, Payload: domain.UserDisconnectedPayload{ParticipantID: id}}
	r.notifyTeacher(ev)
	r.broadcast(ev, id)
}

func publicRoster(participants []domain.Participant) []domain.Participant {
	for i := range participants {
		participants[i] = participants[i].Public()
	}
	return participants
}

// flushStale marks participants whose sinks failed as disconnected.
func (r *room) flushStale() {
	for len(r.stale) > 0 {
		id := r.stale[0]
		r.stale = r.stale[1:]
		if changed, _ := r.tracker.disconnect(id); changed {
			r.announceDisconnect(id)
		}
	}
}
