package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/middleware"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/response"
	"github.com/stemsi/tutor-portal/internal/service"
	"github.com/stemsi/tutor-portal/internal/validator"
)

// GroupReader lists the student's groups. *service.GroupService implements it.
type GroupReader interface {
	List(ctx context.Context, profile *model.StudentProfile, search string, by service.GroupFilter) ([]model.GroupSummary, error)
	Get(ctx context.Context, profile *model.StudentProfile, groupID string) (*service.GroupDetail, error)
}

// EvaluationReader lists the student's scores. *service.EvaluationService
// implements it.
type EvaluationReader interface {
	List(ctx context.Context, profile *model.StudentProfile, groupID, date string) ([]model.EvaluationRow, error)
}

// TaskReader lists a group's tasks. *service.TaskService implements it.
type TaskReader interface {
	List(ctx context.Context, profile *model.StudentProfile, groupID, search string) ([]model.Task, error)
}

// GroupHandler serves the group pages: list, detail, evaluations and tasks.
type GroupHandler struct {
	groups      GroupReader
	evaluations EvaluationReader
	tasks       TaskReader
	log         zerolog.Logger
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groups GroupReader, evaluations EvaluationReader, tasks TaskReader, log zerolog.Logger) *GroupHandler {
	return &GroupHandler{
		groups:      groups,
		evaluations: evaluations,
		tasks:       tasks,
		log:         log.With().Str("component", "group_handler").Logger(),
	}
}

// ListGroups godoc
// GET /api/v1/student/groups?search=&filter=title|teacher
func (h *GroupHandler) ListGroups(c *gin.Context) {
	var q model.GroupListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	by, ok := service.ParseGroupFilter(q.Filter)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidFilter)
		return
	}

	groups, err := h.groups.List(c.Request.Context(), middleware.GetProfile(c), q.Search, by)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.List(c, groups)
}

// GetGroup godoc
// GET /api/v1/student/groups/:group_id
// Groups the student is not a member of read as not found.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groups.Get(c.Request.Context(), middleware.GetProfile(c), c.Param("group_id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, group)
}

// ListEvaluations godoc
// GET /api/v1/student/groups/:group_id/evaluations?date=dd.mm.yyyy
func (h *GroupHandler) ListEvaluations(c *gin.Context) {
	var q model.EvaluationQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rows, err := h.evaluations.List(c.Request.Context(), middleware.GetProfile(c), c.Param("group_id"), q.Date)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.List(c, rows)
}

// ListTasks godoc
// GET /api/v1/student/groups/:group_id/tasks?search=
func (h *GroupHandler) ListTasks(c *gin.Context) {
	var q model.SearchQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), middleware.GetProfile(c), c.Param("group_id"), q.Search)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.List(c, tasks)
}
