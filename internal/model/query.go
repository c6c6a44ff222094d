package model

// GroupListQuery filters the group list by course title or teacher name.
type GroupListQuery struct {
	Search string `form:"search" binding:"max=100"`
	Filter string `form:"filter" binding:"omitempty,oneof=title teacher"`
}

// SearchQuery filters a list by title.
type SearchQuery struct {
	Search string `form:"search" binding:"max=100"`
}

// EvaluationQuery narrows evaluations to one calendar day (dd.mm.yyyy).
type EvaluationQuery struct {
	Date string `form:"date" binding:"omitempty,max=10"`
}
