package domain

import "errors"

var (
	// ErrRoomNameCollision is returned when a non-ended room already uses the name.
	ErrRoomNameCollision = errors.New("room name already in use")
	// ErrRoomNotFound is returned when no live room carries the name.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a join would exceed the room capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrInvalidStateTransition is returned when an operation is attempted outside its valid room state.
	ErrInvalidStateTransition = errors.New("operation not allowed in current room state")
	// ErrQuestionIndexOutOfRange is returned when navigation would leave the question set.
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
	// ErrNoParseableQuestions is returned when a launch finds nothing to ask.
	ErrNoParseableQuestions = errors.New("quiz has no parseable questions")
	// ErrParticipantNotFound is returned when a connection acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in room")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the launched set.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidRoomName is returned for empty room names.
	ErrInvalidRoomName = errors.New("invalid room name")
	// ErrNotTeacher is returned when a participant issues a teacher-only command.
	ErrNotTeacher = errors.New("only the room teacher can perform this action")
)
