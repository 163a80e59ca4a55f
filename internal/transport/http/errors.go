package http

import (
	"errors"

	"classroom-quiz/internal/domain"
)

var errUnsupportedMessage = errors.New("unsupported message type")

type errorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrRoomNameCollision, "room_name_taken"},
	{domain.ErrRoomNotFound, "room_not_found"},
	{domain.ErrRoomFull, "room_full"},
	{domain.ErrInvalidStateTransition, "invalid_state"},
	{domain.ErrQuestionIndexOutOfRange, "index_out_of_range"},
	{domain.ErrNoParseableQuestions, "no_questions"},
	{domain.ErrParticipantNotFound, "not_joined"},
	{domain.ErrQuizNotFound, "quiz_not_found"},
	{domain.ErrQuestionNotFound, "question_not_found"},
	{domain.ErrInvalidRoomName, "invalid_room_name"},
	{domain.ErrNotTeacher, "forbidden"},
	{errUnsupportedMessage, "unsupported"},
	{errBadPayload, "bad_request"},
}

// errorCode maps err onto the stable code sent to clients.
func errorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

func newErrorPayload(err error) errorPayload {
	return errorPayload{Error: err.Error(), Code: errorCode(err)}
}
