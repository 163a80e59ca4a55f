// Package report derives live statistics from a room snapshot. It never mutates
// the snapshot and keeps no reference to it after Build returns.
package report

import (
	"strconv"

	"classroom-quiz/internal/domain"
)

// StudentGrade is the standing of one participant.
type StudentGrade struct {
	ParticipantID string                  `json:"participantId"`
	Name          string                  `json:"name"`
	Status        domain.ConnectionStatus `json:"status"`
	Answered      int                     `json:"answered"`
	Correct       int                     `json:"correct"`
	Grade         float64                 `json:"grade"`
}

// QuestionStat is the success rate of one question. SuccessRate is nil when nobody answered.
type QuestionStat struct {
	QuestionID  string   `json:"questionId"`
	Index       int      `json:"index"`
	Answered    int      `json:"answered"`
	Correct     int      `json:"correct"`
	SuccessRate *float64 `json:"successRate"`
}

// Report is the live aggregation of a room.
type Report struct {
	Room           string            `json:"room"`
	State          domain.RoomState  `json:"state"`
	Mode           domain.PacingMode `json:"mode"`
	CurrentIndex   int               `json:"currentIndex"`
	TotalQuestions int               `json:"totalQuestions"`
	Students       []StudentGrade    `json:"students"`
	Questions      []QuestionStat    `json:"questions"`
	ClassAverage   float64           `json:"classAverage"`
}

// Build computes grades, per-question success rates and the class average.
func Build(s domain.RoomSnapshot) Report {
	r := Report{
		Room:           s.Name,
		State:          s.State,
		Mode:           s.Mode,
		CurrentIndex:   s.CurrentIndex,
		TotalQuestions: len(s.Questions),
		Students:       make([]StudentGrade, 0, len(s.Participants)),
		Questions:      make([]QuestionStat, 0, len(s.Questions)),
	}

	ids := make([]int, len(s.Questions))
	for i, q := range s.Questions {
		id, err := strconv.Atoi(q.ID)
		if err != nil {
			id = i + 1
		}
		ids[i] = id
	}

	for i, id := range ids {
		stat := QuestionStat{QuestionID: s.Questions[i].ID, Index: i}
		for _, p := range s.Participants {
			answer, ok := p.Answers[id]
			if !ok {
				continue
			}
			stat.Answered++
			if answer.IsCorrect {
				stat.Correct++
			}
		}
		if stat.Answered > 0 {
			rate := percent(stat.Correct, stat.Answered)
			stat.SuccessRate = &rate
		}
		r.Questions = append(r.Questions, stat)
	}

	total := 0.0
	for _, p := range s.Participants {
		grade := StudentGrade{ParticipantID: p.ID, Name: p.Name, Status: p.Status}
		for _, id := range ids {
			answer, ok := p.Answers[id]
			if !ok {
				continue
			}
			grade.Answered++
			if answer.IsCorrect {
				grade.Correct++
			}
		}
		grade.Grade = percent(grade.Correct, len(ids))
		total += grade.Grade
		r.Students = append(r.Students, grade)
	}
	if len(r.Students) > 0 {
		r.ClassAverage = total / float64(len(r.Students))
	}
	return r
}

// Student returns the grade of one participant, if present.
func (r Report) Student(participantID string) (StudentGrade, bool) {
	for _, g := range r.Students {
		if g.ParticipantID == participantID {
			return g, true
		}
	}
	return StudentGrade{}, false
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
