package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExamWindow(t *testing.T) {
	loc := time.FixedZone("UZT", 5*3600)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, loc)

	tests := []struct {
		name string
		exam Exam
		want WindowStatus
	}{
		{"no times", Exam{}, WindowUnscheduled},
		{"garbage", Exam{Start: "soon", End: "later"}, WindowUnscheduled},
		{"upcoming", Exam{Start: "2024-05-11 09:00", End: "2024-05-11 11:00"}, WindowUpcoming},
		{"open", Exam{Start: "2024-05-10 09:00", End: "2024-05-10 13:00"}, WindowOpen},
		{"closed", Exam{Start: "2024-05-09 09:00", End: "2024-05-09 11:00"}, WindowClosed},
		{"date-only end covers the day", Exam{Start: "10.05.2024", End: "10.05.2024"}, WindowOpen},
		{"only end", Exam{End: "2024-05-10T11:00"}, WindowClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.exam.Window(now, loc))
		})
	}
}

func TestOptionIndex(t *testing.T) {
	assert.Equal(t, 0, OptionIndex("A"))
	assert.Equal(t, 3, OptionIndex("D"))
	assert.Equal(t, -1, OptionIndex("E"))
	assert.Equal(t, -1, OptionIndex("a"))
}

func TestGroupSummaryTitle(t *testing.T) {
	g := GroupSummary{Group: Group{GroupNumber: "3"}, CourseTitle: "Math"}
	assert.Equal(t, "Math 3", g.Title())

	g.CourseTitle = ""
	assert.Equal(t, "3", g.Title())
}

func TestEvaluationScoreFor(t *testing.T) {
	e := Evaluation{Students: []EvaluationScore{{ID: "s1", Score: "5"}, {ID: "s2"}}}

	score, ok := e.ScoreFor("s1")
	assert.True(t, ok)
	assert.Equal(t, Text("5"), score)

	score, ok = e.ScoreFor("s2")
	assert.True(t, ok)
	assert.Empty(t, score)

	_, ok = e.ScoreFor("s3")
	assert.False(t, ok)
}

func TestSessionCloneIsIndependent(t *testing.T) {
	s := NewSession(&Account{UID: "s1"})
	s.Groups = append(s.Groups, Group{ID: "g1"})

	c := s.Clone()
	c.Groups[0].ID = "changed"

	assert.Equal(t, "g1", s.Groups[0].ID)
	assert.NotNil(t, s.Group("g1"))
	assert.Nil(t, s.Group("g2"))
}
