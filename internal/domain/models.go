package domain

import (
	"fmt"
	"strings"
	"time"
)

// PacingMode decides who moves through the question set.
type PacingMode int

const (
	// TeacherPaced shares one current question, advanced by the teacher.
	TeacherPaced PacingMode = iota
	// StudentPaced hands every participant the full set at once.
	StudentPaced
)

func (m PacingMode) String() string {
	switch m {
	case TeacherPaced:
		return "teacher"
	case StudentPaced:
		return "student"
	default:
		return fmt.Sprintf("PacingMode(%d)", int(m))
	}
}

func (m PacingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *PacingMode) UnmarshalText(text []byte) error {
	mode, err := ParsePacingMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParsePacingMode accepts "teacher" or "student"; an empty string means TeacherPaced.
func ParsePacingMode(raw string) (PacingMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "teacher":
		return TeacherPaced, nil
	case "student":
		return StudentPaced, nil
	default:
		return TeacherPaced, fmt.Errorf("unknown pacing mode %q", raw)
	}
}

// RoomState is the lifecycle stage of a room.
type RoomState int

const (
	RoomCreated RoomState = iota
	RoomActive
	RoomEnded
)

func (s RoomState) String() string {
	switch s {
	case RoomCreated:
		return "created"
	case RoomActive:
		return "active"
	case RoomEnded:
		return "ended"
	default:
		return fmt.Sprintf("RoomState(%d)", int(s))
	}
}

func (s RoomState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ConnectionStatus is tracked per participant; participants are never removed.
type ConnectionStatus string

const (
	Connected    ConnectionStatus = "connected"
	Disconnected ConnectionStatus = "disconnected"
)

// Participant is one student connection admitted to a room.
type Participant struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Status   ConnectionStatus `json:"status"`
	JoinedAt time.Time        `json:"joinedAt"`
	Answers  map[int]Answer   `json:"answers,omitempty"`
}

// Clone returns a copy that shares no mutable state with p.
func (p Participant) Clone() Participant {
	out := p
	out.Answers = make(map[int]Answer, len(p.Answers))
	for id, answer := range p.Answers {
		out.Answers[id] = answer
	}
	return out
}

// Public strips the answers, for roster updates sent to other clients.
func (p Participant) Public() Participant {
	p.Answers = nil
	return p
}

// Answer is the latest submission of a participant for one question.
type Answer struct {
	QuestionID  int       `json:"questionId"`
	Value       Value     `json:"answer"`
	IsCorrect   bool      `json:"isCorrect"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Quiz is quiz content as delivered by a content provider: raw question markup in order.
type Quiz struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Questions []string `json:"questions"`
}

// RoomSnapshot is a point-in-time copy of a room, safe to read outside the room's coordinator.
type RoomSnapshot struct {
	Name         string        `json:"name"`
	State        RoomState     `json:"state"`
	Mode         PacingMode    `json:"mode"`
	CurrentIndex int           `json:"currentIndex"`
	Questions    []Question    `json:"-"`
	Participants []Participant `json:"participants"`
}

// NormalizeRoomName upper-cases and trims a room name.
func NormalizeRoomName(name string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	if normalized == "" {
		return "", ErrInvalidRoomName
	}
	return normalized, nil
}
