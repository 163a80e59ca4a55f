package domain

// Event names of the real-time channel.
const (
	EventCreateRoom        = "create-room"
	EventCreateSuccess     = "create-success"
	EventCreateFailure     = "create-failure"
	EventJoinRoom          = "join-room"
	EventJoinSuccess       = "join-success"
	EventJoinFailure       = "join-failure"
	EventUserJoined        = "user-joined"
	EventUserDisconnected  = "user-disconnected"
	EventNextQuestion      = "next-question"
	EventAdvance           = "advance"
	EventLaunchStudentMode = "launch-student-mode"
	EventSubmitAnswer      = "submit-answer-room"
	EventAnswerRecorded    = "answer-recorded"
	EventGetResults        = "get-results"
	EventResults           = "results"
	EventEndQuiz           = "end-quiz"
	EventError             = "error"
)

// Event is one outbound message for a connection.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Sink receives the events addressed to one connection. Send must not block; it returns
// false when the event could not be queued, and the sink is not used again afterwards.
type Sink interface {
	Send(Event) bool
}

type JoinSuccessPayload struct {
	ParticipantID string        `json:"participantId"`
	RoomName      string        `json:"roomName"`
	Participants  []Participant `json:"participants"`
}

type QuestionPayload struct {
	Index    int          `json:"index"`
	Question QuestionView `json:"question"`
}

type StudentModePayload struct {
	Questions []QuestionView `json:"questions"`
}

type UserDisconnectedPayload struct {
	ParticipantID string `json:"participantId"`
}

// AnswerRelayPayload is sent to the teacher for every recorded answer.
type AnswerRelayPayload struct {
	ParticipantID string `json:"participantId"`
	Username      string `json:"username"`
	QuestionID    int    `json:"questionId"`
	Answer        Value  `json:"answer"`
	IsCorrect     bool   `json:"isCorrect"`
}

type EndQuizPayload struct {
	RoomName string `json:"roomName"`
}
