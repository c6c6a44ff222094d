package model

// Task is users/{owner}/groups/{gid}/tasks/{id}. Images are attachment URLs.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Due         Timestamp `json:"due"`
	Images      []string  `json:"images"`
}

func (t *Task) SetID(id string) { t.ID = id }
