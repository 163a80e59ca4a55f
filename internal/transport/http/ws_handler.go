package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"classroom-quiz/internal/app"
	"classroom-quiz/internal/domain"
	"classroom-quiz/internal/metrics"
	"github.com/gorilla/websocket"
)

var errBadPayload = errors.New("invalid payload")

// WSOptions tunes every websocket connection.
type WSOptions struct {
	SendBuffer   int
	PingInterval time.Duration
	OpTimeout    time.Duration
}

func (o WSOptions) withDefaults() WSOptions {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = 5 * time.Second
	}
	return o
}

type WSHandler struct {
	service  *app.SessionService
	opts     WSOptions
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService, opts WSOptions) *WSHandler {
	return &WSHandler{
		service: service,
		opts:    opts.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomPayload struct {
	RoomName string `json:"roomName"`
}

type joinPayload struct {
	RoomName string `json:"roomName"`
	Username string `json:"username"`
}

type nextQuestionPayload struct {
	RoomName      string            `json:"roomName"`
	QuizID        string            `json:"quizId"`
	Questions     []string          `json:"questions"`
	QuestionIndex int               `json:"questionIndex"`
	IsLaunch      bool              `json:"isLaunch"`
	Mode          domain.PacingMode `json:"mode"`
}

type advancePayload struct {
	RoomName  string `json:"roomName"`
	Direction string `json:"direction"`
}

type answerPayload struct {
	RoomName   string       `json:"roomName"`
	QuestionID questionRef  `json:"questionId"`
	Answer     domain.Value `json:"answer"`
}

type answerRecorded struct {
	QuestionID int  `json:"questionId"`
	IsCorrect  bool `json:"isCorrect"`
}

// questionRef accepts a question id sent either as a number or as a numeric string.
type questionRef int

func (q *questionRef) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("question id %s: %w", data, errBadPayload)
	}
	*q = questionRef(n)
	return nil
}

type role int

const (
	roleNone role = iota
	roleTeacher
	roleStudent
)

// session is the per-connection state; only the read loop touches it.
type session struct {
	role          role
	roomName      string
	participantID string
}

// ServeWS upgrades HTTP requests to websockets and wires them into the session use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	conn := newConnection(ws, h.opts.SendBuffer)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		conn.writePump(h.opts.PingInterval)
	}()

	readWait := 2 * h.opts.PingInterval
	_ = ws.SetReadDeadline(time.Now().Add(readWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readWait))
	})

	var s session
	for {
		var inbound inboundMessage
		if err := ws.ReadJSON(&inbound); err != nil {
			break
		}
		_ = ws.SetReadDeadline(time.Now().Add(readWait))
		h.dispatch(r.Context(), conn, &s, inbound)
	}

	h.leave(&s)
	conn.close()
	<-writerDone
}

func (h *WSHandler) dispatch(parent context.Context, conn *connection, s *session, msg inboundMessage) {
	ctx, cancel := context.WithTimeout(parent, h.opts.OpTimeout)
	defer cancel()

	switch msg.Type {
	case domain.EventCreateRoom:
		h.createRoom(ctx, conn, s, msg.Payload)
	case domain.EventJoinRoom:
		h.joinRoom(ctx, conn, s, msg.Payload)
	case domain.EventNextQuestion:
		h.reply(conn, h.nextQuestion(ctx, s, msg.Payload))
	case domain.EventAdvance:
		h.reply(conn, h.advance(ctx, s, msg.Payload))
	case domain.EventSubmitAnswer:
		h.submitAnswer(ctx, conn, s, msg.Payload)
	case domain.EventGetResults:
		h.results(ctx, conn, s, msg.Payload)
	case domain.EventEndQuiz:
		h.reply(conn, h.endQuiz(ctx, s, msg.Payload))
	default:
		h.reply(conn, fmt.Errorf("%q: %w", msg.Type, errUnsupportedMessage))
	}
}

func (h *WSHandler) createRoom(ctx context.Context, conn *connection, s *session, raw json.RawMessage) {
	var p roomPayload
	if err := decode(raw, &p); err != nil {
		conn.Send(domain.Event{Type: domain.EventCreateFailure, Payload: newErrorPayload(err)})
		return
	}
	if s.role != roleNone {
		err := fmt.Errorf("connection already in room %s: %w", s.roomName, domain.ErrInvalidStateTransition)
		conn.Send(domain.Event{Type: domain.EventCreateFailure, Payload: newErrorPayload(err)})
		return
	}
	name, err := h.service.CreateRoom(ctx, p.RoomName, conn)
	if err != nil {
		conn.Send(domain.Event{Type: domain.EventCreateFailure, Payload: newErrorPayload(err)})
		return
	}
	s.role, s.roomName = roleTeacher, name
	conn.Send(domain.Event{Type: domain.EventCreateSuccess, Payload: roomPayload{RoomName: name}})
}

func (h *WSHandler) joinRoom(ctx context.Context, conn *connection, s *session, raw json.RawMessage) {
	var p joinPayload
	if err := decode(raw, &p); err != nil {
		conn.Send(domain.Event{Type: domain.EventJoinFailure, Payload: newErrorPayload(err)})
		return
	}
	if s.role != roleNone {
		err := fmt.Errorf("connection already in room %s: %w", s.roomName, domain.ErrInvalidStateTransition)
		conn.Send(domain.Event{Type: domain.EventJoinFailure, Payload: newErrorPayload(err)})
		return
	}
	participant, err := h.service.JoinRoom(ctx, p.RoomName, p.Username, conn)
	if err != nil {
		conn.Send(domain.Event{Type: domain.EventJoinFailure, Payload: newErrorPayload(err)})
		return
	}
	normalized, _ := domain.NormalizeRoomName(p.RoomName)
	s.role, s.roomName, s.participantID = roleStudent, normalized, participant.ID
}

func (h *WSHandler) nextQuestion(ctx context.Context, s *session, raw json.RawMessage) error {
	var p nextQuestionPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	if err := s.requireTeacher(p.RoomName); err != nil {
		return err
	}
	if !p.IsLaunch {
		return h.service.JumpTo(ctx, s.roomName, p.QuestionIndex)
	}
	_, err := h.service.Launch(ctx, s.roomName, app.LaunchRequest{
		Mode:       p.Mode,
		QuizID:     p.QuizID,
		Questions:  p.Questions,
		StartIndex: p.QuestionIndex,
	})
	return err
}

func (h *WSHandler) advance(ctx context.Context, s *session, raw json.RawMessage) error {
	var p advancePayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	if err := s.requireTeacher(p.RoomName); err != nil {
		return err
	}
	dir, err := app.ParseDirection(p.Direction)
	if err != nil {
		return fmt.Errorf("%v: %w", err, errBadPayload)
	}
	_, err = h.service.Advance(ctx, s.roomName, dir)
	return err
}

func (h *WSHandler) submitAnswer(ctx context.Context, conn *connection, s *session, raw json.RawMessage) {
	var p answerPayload
	if err := decode(raw, &p); err != nil {
		h.reply(conn, err)
		return
	}
	if s.role != roleStudent || !s.inRoom(p.RoomName) {
		h.reply(conn, domain.ErrParticipantNotFound)
		return
	}
	answer, err := h.service.SubmitAnswer(ctx, s.roomName, s.participantID, int(p.QuestionID), p.Answer)
	if err != nil {
		h.reply(conn, err)
		return
	}
	conn.Send(domain.Event{Type: domain.EventAnswerRecorded, Payload: answerRecorded{
		QuestionID: answer.QuestionID,
		IsCorrect:  answer.IsCorrect,
	}})
}

func (h *WSHandler) results(ctx context.Context, conn *connection, s *session, raw json.RawMessage) {
	var p roomPayload
	if err := decode(raw, &p); err != nil {
		h.reply(conn, err)
		return
	}
	if err := s.requireTeacher(p.RoomName); err != nil {
		h.reply(conn, err)
		return
	}
	rep, err := h.service.Report(ctx, s.roomName)
	if err != nil {
		h.reply(conn, err)
		return
	}
	conn.Send(domain.Event{Type: domain.EventResults, Payload: rep})
}

func (h *WSHandler) endQuiz(ctx context.Context, s *session, raw json.RawMessage) error {
	var p roomPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	if err := s.requireTeacher(p.RoomName); err != nil {
		return err
	}
	if err := h.service.EndRoom(ctx, s.roomName); err != nil {
		return err
	}
	*s = session{}
	return nil
}

// leave runs once the read loop is over. A teacher leaving ends the room.
func (h *WSHandler) leave(s *session) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.OpTimeout)
	defer cancel()

	switch s.role {
	case roleTeacher:
		if err := h.service.EndRoom(ctx, s.roomName); err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
			log.Printf("ws: end room %s after teacher left: %v", s.roomName, err)
		}
	case roleStudent:
		if err := h.service.Disconnect(ctx, s.roomName, s.participantID); err != nil {
			log.Printf("ws: disconnect %s from %s: %v", s.participantID, s.roomName, err)
		}
	}
}

// reply sends an error event when err is non-nil.
func (h *WSHandler) reply(conn *connection, err error) {
	if err == nil {
		return
	}
	conn.Send(domain.Event{Type: domain.EventError, Payload: newErrorPayload(err)})
}

func (s *session) inRoom(name string) bool {
	normalized, err := domain.NormalizeRoomName(name)
	return err == nil && normalized == s.roomName
}

func (s *session) requireTeacher(roomName string) error {
	if s.role != roleTeacher || !s.inRoom(roomName) {
		return domain.ErrNotTeacher
	}
	return nil
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty payload: %w", errBadPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		if errors.Is(err, errBadPayload) {
			return err
		}
		return fmt.Errorf("%v: %w", err, errBadPayload)
	}
	return nil
}
