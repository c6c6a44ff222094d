package model

// Course is users/{owner}/courses/{id}.
type Course struct {
	ID          string `json:"id"`
	CourseTitle string `json:"courseTitle"`
}

func (c *Course) SetID(id string) { c.ID = id }

// Teacher is users/{owner}/teachers/{id}.
type Teacher struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
}

func (t *Teacher) SetID(id string) { t.ID = id }

// Group is users/{owner}/groups/{id}. Students lists member student ids.
type Group struct {
	ID          string   `json:"id"`
	CourseID    string   `json:"courseId"`
	TeacherID   string   `json:"teacherId,omitempty"`
	GroupNumber Text     `json:"groupNumber"`
	Students    []string `json:"students"`
}

func (g *Group) SetID(id string) { g.ID = id }

// HasStudent reports whether uid is a member.
func (g *Group) HasStudent(uid string) bool {
	for _, s := range g.Students {
		if s == uid {
			return true
		}
	}
	return false
}

// GroupSummary is a group resolved against its course and teacher.
type GroupSummary struct {
	Group
	CourseTitle string `json:"courseTitle"`
	TeacherName string `json:"teacherName,omitempty"`
}

// Title renders "{courseTitle} {groupNumber}" as shown in group headers.
func (g GroupSummary) Title() string {
	number := g.GroupNumber.String()
	if g.CourseTitle == "" {
		return number
	}
	if number == "" {
		return g.CourseTitle
	}
	return g.CourseTitle + " " + number
}
