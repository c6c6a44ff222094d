package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/tutor-portal/internal/model"
)

func TestSummarizeExamsHidesAndFilters(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)
	exams := []model.Exam{
		{ID: "e1", Title: "Grammar quiz", Start: "2024-03-10T09:00", End: "2024-03-10T15:00", IsShow: true},
		{ID: "e2", Title: "Grammar final", Start: "2024-04-01", IsShow: true},
		{ID: "e3", Title: "Grammar draft", IsShow: false},
		{ID: "e4", Title: "Vocabulary", IsShow: true},
	}

	got := summarizeExams(exams, "grammar", now, loc)

	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, model.WindowOpen, got[0].Window)
	assert.Equal(t, "e2", got[1].ID)
	assert.Equal(t, model.WindowUpcoming, got[1].Window)

	none := summarizeExams(exams, "physics", now, loc)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestBuildResultRowsPrefersSubmission(t *testing.T) {
	at := model.NewTimestamp(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	roster := []model.StudentProfile{
		{ID: "s1", FullName: "Aziza Karimova"},
		{ID: "s2", FullName: "Bekzod Tursunov"},
	}
	records := []model.SubmissionRecord{
		{ID: "s2", FullName: "Bekzod Tursunov", Answers: []string{"A", "C"}, Timestamp: at},
		{ID: "gone", FullName: "Left the group", Answers: []string{"B"}},
	}

	rows := buildResultRows(roster, records)

	require.Len(t, rows, 2)
	assert.Equal(t, "s1", rows[0].ID)
	assert.False(t, rows[0].Submitted)
	assert.Nil(t, rows[0].Answers)

	assert.Equal(t, "s2", rows[1].ID)
	assert.True(t, rows[1].Submitted)
	assert.Equal(t, []string{"A", "C"}, rows[1].Answers)
	assert.True(t, rows[1].Timestamp.Equal(at.Time))
}
