package model

import (
	"strings"
	"time"
)

// Exam is users/{owner}/groups/{gid}/exams/{id}. Start and End are kept as
// entered by the teacher; Type is the place the exam is held.
type Exam struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Type   string `json:"type"`
	Status string `json:"status"`
	IsShow bool   `json:"isShow"`
}

func (e *Exam) SetID(id string) { e.ID = id }

// WindowStatus describes where now falls relative to an exam's time window.
type WindowStatus string

const (
	WindowUpcoming    WindowStatus = "UPCOMING"
	WindowOpen        WindowStatus = "OPEN"
	WindowClosed      WindowStatus = "CLOSED"
	WindowUnscheduled WindowStatus = "UNSCHEDULED"
)

var examTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"02.01.2006 15:04",
	"2006-01-02",
	"02.01.2006",
}

// ParseExamTime parses a start/end value in loc. ok is false for values in
// none of the accepted layouts.
func ParseExamTime(value string, loc *time.Location) (t time.Time, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range examTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Window classifies now against the exam's start and end. A date-only end
// covers the whole day.
func (e Exam) Window(now time.Time, loc *time.Location) WindowStatus {
	start, hasStart := ParseExamTime(e.Start, loc)
	end, hasEnd := ParseExamTime(e.End, loc)
	if !hasStart && !hasEnd {
		return WindowUnscheduled
	}
	if hasEnd && len(strings.TrimSpace(e.End)) <= len("02.01.2006") {
		end = end.AddDate(0, 0, 1)
	}

	switch {
	case hasStart && now.Before(start):
		return WindowUpcoming
	case hasEnd && !now.Before(end):
		return WindowClosed
	default:
		return WindowOpen
	}
}

// Options are the selectable answer letters, in display order.
var Options = []string{"A", "B", "C", "D"}

// OptionIndex returns the position of letter in Options, or -1.
func OptionIndex(letter string) int {
	for i, o := range Options {
		if o == letter {
			return i
		}
	}
	return -1
}

// Question is .../exams/{eid}/questions/{id}. Answers holds the option
// texts in the order of Options.
type Question struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Answers   []string  `json:"answers"`
	CreatedAt Timestamp `json:"createdAt"`
}

func (q *Question) SetID(id string) { q.ID = id }

// SubmissionRecord is .../exams/{eid}/submittedStudents/{studentId}.
// Answers is index-aligned with the ordered questions.
type SubmissionRecord struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Answers   []string  `json:"answers"`
	Timestamp Timestamp `json:"timestamp"`
}

func (s *SubmissionRecord) SetID(id string) { s.ID = id }

// ResultRow is one roster line of an exam result listing. Submitted rows
// carry the record's answers and time.
type ResultRow struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Submitted bool      `json:"submitted"`
	Answers   []string  `json:"answers,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

// SubmissionEvent is queued for the audit trail after a submission is
// stored.
type SubmissionEvent struct {
	StudentID   string    `json:"student_id"`
	AdminID     string    `json:"admin_id"`
	GroupID     string    `json:"group_id"`
	ExamID      string    `json:"exam_id"`
	Answers     []string  `json:"answers"`
	SubmittedAt Timestamp `json:"submitted_at"`
}

// SelectAnswerRequest picks an option for one question.
type SelectAnswerRequest struct {
	Option string `json:"option" binding:"required,oneof=A B C D"`
}
