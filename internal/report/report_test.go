package report

import (
	"math"
	"testing"

	"classroom-quiz/internal/domain"
)

func threeQuestions() []domain.Question {
	return []domain.Question{
		{ID: "1", Key: domain.TrueFalseKey{IsTrue: true}},
		{ID: "2", Key: domain.TrueFalseKey{IsTrue: false}},
		{ID: "3", Key: domain.ShortAnswerKey{Accepted: []string{"x"}}},
	}
}

func participant(id string, status domain.ConnectionStatus, answers ...domain.Answer) domain.Participant {
	p := domain.Participant{ID: id, Name: "student " + id, Status: status, Answers: map[int]domain.Answer{}}
	for _, a := range answers {
		p.Answers[a.QuestionID] = a
	}
	return p
}

func TestBuildClassReport(t *testing.T) {
	snap := domain.RoomSnapshot{
		Name:      "ABC123",
		State:     domain.RoomActive,
		Questions: threeQuestions(),
		Participants: []domain.Participant{
			participant("a", domain.Connected,
				domain.Answer{QuestionID: 1, IsCorrect: true},
				domain.Answer{QuestionID: 2, IsCorrect: false}),
			participant("b", domain.Disconnected,
				domain.Answer{QuestionID: 1, IsCorrect: true},
				domain.Answer{QuestionID: 2, IsCorrect: false}),
		},
	}

	r := Build(snap)

	if r.TotalQuestions != 3 || len(r.Questions) != 3 {
		t.Fatalf("unexpected question count %+v", r)
	}
	if rate := r.Questions[0].SuccessRate; rate == nil || *rate != 100 {
		t.Fatalf("expected Q1 rate 100, got %v", rate)
	}
	if rate := r.Questions[1].SuccessRate; rate == nil || *rate != 0 {
		t.Fatalf("expected Q2 rate 0, got %v", rate)
	}
	if r.Questions[2].SuccessRate != nil || r.Questions[2].Answered != 0 {
		t.Fatalf("expected Q3 excluded, got %+v", r.Questions[2])
	}

	g, ok := r.Student("b")
	if !ok || math.Abs(g.Grade-100.0/3) > 1e-9 || g.Status != domain.Disconnected {
		t.Fatalf("unexpected grade for disconnected student: %+v", g)
	}
	if math.Abs(r.ClassAverage-100.0/3) > 1e-9 {
		t.Fatalf("expected class average ~33.3, got %v", r.ClassAverage)
	}
}

func TestSuccessRateExcludesNonAnswerers(t *testing.T) {
	snap := domain.RoomSnapshot{
		Questions: threeQuestions(),
		Participants: []domain.Participant{
			participant("a", domain.Connected, domain.Answer{QuestionID: 1, IsCorrect: true}),
			participant("b", domain.Connected, domain.Answer{QuestionID: 1, IsCorrect: false}),
			participant("c", domain.Connected),
		},
	}
	r := Build(snap)
	if rate := r.Questions[0].SuccessRate; rate == nil || *rate != 50 {
		t.Fatalf("expected 50%% over answerers only, got %v", rate)
	}
	if g, _ := r.Student("c"); g.Grade != 0 || g.Answered != 0 {
		t.Fatalf("student without answers must grade 0, got %+v", g)
	}
}

func TestBuildEmptyRoom(t *testing.T) {
	r := Build(domain.RoomSnapshot{Name: "EMPTY"})
	if r.ClassAverage != 0 || len(r.Students) != 0 || len(r.Questions) != 0 {
		t.Fatalf("unexpected report for empty room: %+v", r)
	}
}

func TestAnswersOutsideQuestionSetIgnored(t *testing.T) {
	snap := domain.RoomSnapshot{
		Questions: threeQuestions(),
		Participants: []domain.Participant{
			participant("a", domain.Connected, domain.Answer{QuestionID: 9, IsCorrect: true}),
		},
	}
	if g, _ := Build(snap).Student("a"); g.Correct != 0 || g.Grade != 0 {
		t.Fatalf("stray answer must not count: %+v", g)
	}
}
