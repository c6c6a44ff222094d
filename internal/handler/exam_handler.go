package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/examflow"
	"github.com/stemsi/tutor-portal/internal/metrics"
	"github.com/stemsi/tutor-portal/internal/middleware"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/response"
	"github.com/stemsi/tutor-portal/internal/service"
	"github.com/stemsi/tutor-portal/internal/validator"
)

// ExamRunner lists exams and drives the question flow.
// *service.ExamService implements it.
type ExamRunner interface {
	List(ctx context.Context, profile *model.StudentProfile, groupID, search string) ([]service.ExamSummary, error)
	Get(ctx context.Context, profile *model.StudentProfile, groupID, examID string) (*service.ExamDetail, error)
	Questions(ctx context.Context, profile *model.StudentProfile, groupID, examID string) (*service.QuestionSheet, error)
	SelectAnswer(ctx context.Context, profile *model.StudentProfile, groupID, examID string, index int, option string) (*service.QuestionSheet, error)
	Submit(ctx context.Context, profile *model.StudentProfile, groupID, examID string) (*model.SubmissionRecord, error)
	Results(ctx context.Context, profile *model.StudentProfile, groupID, examID string) ([]model.ResultRow, error)
}

// ExamHandler serves a group's exams and the student's answer sheet.
type ExamHandler struct {
	exams   ExamRunner
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(exams ExamRunner, m *metrics.Metrics, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		exams:   exams,
		metrics: m,
		log:     log.With().Str("component", "exam_handler").Logger(),
	}
}

// ListExams godoc
// GET /api/v1/student/groups/:group_id/exams?search=
// Returns the group's visible exams with their window status.
func (h *ExamHandler) ListExams(c *gin.Context) {
	var q model.SearchQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exams, err := h.exams.List(c.Request.Context(), middleware.GetProfile(c), c.Param("group_id"), q.Search)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.List(c, exams)
}

// GetExam godoc
// GET /api/v1/student/groups/:group_id/exams/:exam_id
func (h *ExamHandler) GetExam(c *gin.Context) {
	exam, err := h.exams.Get(c.Request.Context(), middleware.GetProfile(c), c.Param("group_id"), c.Param("exam_id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, exam)
}

// GetQuestions godoc
// GET /api/v1/student/groups/:group_id/exams/:exam_id/questions
// Returns the ordered questions with the student's saved selections.
func (h *ExamHandler) GetQuestions(c *gin.Context) {
	sheet, err := h.exams.Questions(c.Request.Context(), middleware.GetProfile(c), c.Param("group_id"), c.Param("exam_id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sheet)
}

// SelectAnswer godoc
// PUT /api/v1/student/groups/:group_id/exams/:exam_id/answers/:index
// Body: {"option": "A"}. Ignored once the exam is submitted.
func (h *ExamHandler) SelectAnswer(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidIndex)
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sheet, err := h.exams.SelectAnswer(c.Request.Context(), middleware.GetProfile(c), c.Param("group_id"), c.Param("exam_id"), index, req.Option)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sheet)
}

// Submit godoc
// POST /api/v1/student/groups/:group_id/exams/:exam_id/submit
// Stores the answers once. A second submit is rejected.
func (h *ExamHandler) Submit(c *gin.Context) {
	rec, err := h.exams.Submit(c.Request.Context(), middleware.GetProfile(c), c.Param("group_id"), c.Param("exam_id"))
	h.metrics.Submissions.WithLabelValues(submitResult(err)).Inc()
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, rec)
}

// GetResults godoc
// GET /api/v1/student/groups/:group_id/exams/:exam_id/results
// Lists the group roster; submitted students carry their answers.
func (h *ExamHandler) GetResults(c *gin.Context) {
	rows, err := h.exams.Results(c.Request.Context(), middleware.GetProfile(c), c.Param("group_id"), c.Param("exam_id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.List(c, rows)
}

func submitResult(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, examflow.ErrIncomplete):
		return "incomplete"
	case errors.Is(err, examflow.ErrAlreadySubmitted):
		return "duplicate"
	default:
		return "error"
	}
}
