package service

import (
	"context"
	"fmt"
	"time"

	"github.com/stemsi/tutor-portal/internal/listing"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/repository"
)

// TaskService lists a group's homework tasks.
type TaskService struct {
	groups *repository.GroupRepository
	tasks  *repository.TaskRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(groups *repository.GroupRepository, tasks *repository.TaskRepository) *TaskService {
	return &TaskService{groups: groups, tasks: tasks}
}

// List returns the group's tasks matching search, soonest due first.
func (s *TaskService) List(ctx context.Context, profile *model.StudentProfile, groupID, search string) ([]model.Task, error) {
	if _, err := memberGroup(ctx, s.groups, profile, groupID); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByGroup(ctx, profile.AdminID, groupID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return filterTasks(tasks, search), nil
}

func filterTasks(tasks []model.Task, search string) []model.Task {
	out := listing.Filter(tasks, search, func(t model.Task) string { return t.Title })
	listing.SortByTime(out, func(t model.Task) time.Time { return t.Due.Time }, false)
	return out
}
