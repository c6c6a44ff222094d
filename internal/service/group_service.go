package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stemsi/tutor-portal/internal/listing"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/repository"
)

var ErrGroupNotFound = errors.New("group not found")

// GroupFilter selects the field the group search matches against.
type GroupFilter string

const (
	GroupFilterTitle   GroupFilter = "title"
	GroupFilterTeacher GroupFilter = "teacher"
)

// ParseGroupFilter maps a query value to a GroupFilter, defaulting to title.
func ParseGroupFilter(v string) (GroupFilter, bool) {
	switch GroupFilter(v) {
	case "", GroupFilterTitle:
		return GroupFilterTitle, true
	case GroupFilterTeacher:
		return GroupFilterTeacher, true
	default:
		return "", false
	}
}

// GroupDetail is a group with its roster.
type GroupDetail struct {
	model.GroupSummary
	Title  string                 `json:"title"`
	Roster []model.StudentProfile `json:"roster"`
}

// GroupService serves the student's group listings.
type GroupService struct {
	groups   *repository.GroupRepository
	students *repository.StudentRepository
}

// NewGroupService creates a new GroupService.
func NewGroupService(groups *repository.GroupRepository, students *repository.StudentRepository) *GroupService {
	return &GroupService{groups: groups, students: students}
}

// List returns the student's groups matching search on the chosen field.
func (s *GroupService) List(ctx context.Context, profile *model.StudentProfile, search string, by GroupFilter) ([]model.GroupSummary, error) {
	groups, err := s.groups.ListForStudent(ctx, profile.AdminID, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	courses, err := s.groups.ListCourses(ctx, profile.AdminID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	teachers, err := s.groups.ListTeachers(ctx, profile.AdminID)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}

	return filterGroups(summarizeGroups(groups, courses, teachers), search, by), nil
}

// Get returns one of the student's groups with its roster.
func (s *GroupService) Get(ctx context.Context, profile *model.StudentProfile, groupID string) (*GroupDetail, error) {
	group, err := memberGroup(ctx, s.groups, profile, groupID)
	if err != nil {
		return nil, err
	}
	courses, err := s.groups.ListCourses(ctx, profile.AdminID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	teachers, err := s.groups.ListTeachers(ctx, profile.AdminID)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	roster, err := s.students.ListByIDs(ctx, group.Students)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	summary := summarizeGroups([]model.Group{*group}, courses, teachers)[0]
	return &GroupDetail{GroupSummary: summary, Title: summary.Title(), Roster: roster}, nil
}

// memberGroup loads groupID and hides it unless the student is a member.
func memberGroup(ctx context.Context, groups *repository.GroupRepository, profile *model.StudentProfile, groupID string) (*model.Group, error) {
	g, err := groups.Get(ctx, profile.AdminID, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	if !g.HasStudent(profile.ID) {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

func summarizeGroups(groups []model.Group, courses []model.Course, teachers []model.Teacher) []model.GroupSummary {
	courseTitles := make(map[string]string, len(courses))
	for _, c := range courses {
		courseTitles[c.ID] = c.CourseTitle
	}
	teacherNames := make(map[string]string, len(teachers))
	for _, t := range teachers {
		teacherNames[t.ID] = t.FullName
	}

	out := make([]model.GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.GroupSummary{
			Group:       g,
			CourseTitle: courseTitles[g.CourseID],
			TeacherName: teacherNames[g.TeacherID],
		})
	}
	return out
}

func filterGroups(groups []model.GroupSummary, search string, by GroupFilter) []model.GroupSummary {
	if by == GroupFilterTeacher {
		return listing.Filter(groups, search, func(g model.GroupSummary) string { return g.TeacherName })
	}
	return listing.Filter(groups, search, func(g model.GroupSummary) string { return g.CourseTitle })
}
