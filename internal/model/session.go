package model

// Session is everything the dashboard derives from the signed-in student:
// the account, the profile, the owner it belongs to and the owner-scoped
// collections. Until the profile resolves, Loading is true and the
// collections are empty.
type Session struct {
	Account  *Account         `json:"account"`
	Profile  *StudentProfile  `json:"profile"`
	AdminID  string           `json:"adminId"`
	Groups   []Group          `json:"groups"`
	Courses  []Course         `json:"courses"`
	Teachers []Teacher        `json:"teachers"`
	Roster   []StudentProfile `json:"roster"`
	Loading  bool             `json:"loading"`
}

// NewSession returns an empty, loading session for account.
func NewSession(account *Account) *Session {
	return &Session{
		Account:  account,
		Groups:   []Group{},
		Courses:  []Course{},
		Teachers: []Teacher{},
		Roster:   []StudentProfile{},
		Loading:  true,
	}
}

// Group returns the session group with id, or nil.
func (s *Session) Group(id string) *Group {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return &s.Groups[i]
		}
	}
	return nil
}

// Clone returns a copy safe to hand to another goroutine.
func (s *Session) Clone() *Session {
	out := *s
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	out.Groups = append([]Group{}, s.Groups...)
	out.Courses = append([]Course{}, s.Courses...)
	out.Teachers = append([]Teacher{}, s.Teachers...)
	out.Roster = append([]StudentProfile{}, s.Roster...)
	return &out
}
