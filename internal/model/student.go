package model

import "time"

// StudentProfile is the students/{uid} document. AdminID names the owner
// whose collections hold the student's groups, courses and exams.
type StudentProfile struct {
	ID                string `json:"id"`
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	PhoneNumber       string `json:"phoneNumber"`
	ParentPhoneNumber string `json:"parentPhoneNumber"`
	PassportID        string `json:"passportId"`
	Address           string `json:"address,omitempty"`
	Telegram          string `json:"telegram,omitempty"`
	AdminID           string `json:"adminId"`
}

func (s *StudentProfile) SetID(id string) { s.ID = id }

// Account is an identity record. PasswordHash never leaves the server.
type Account struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for student sign-in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AccountUpdateRequest is the account settings form.
type AccountUpdateRequest struct {
	FullName          string `json:"fullName" binding:"required,notblank,max=120"`
	PhoneNumber       string `json:"phoneNumber" binding:"required,e164"`
	ParentPhoneNumber string `json:"parentPhoneNumber" binding:"required,e164"`
	PassportID        string `json:"passportId" binding:"required,notblank,max=32"`
	Email             string `json:"email" binding:"required,email"`
	Address           string `json:"address" binding:"omitempty,max=255"`
	Telegram          string `json:"telegram" binding:"omitempty,max=64"`
	CurrentPassword   string `json:"currentPassword" binding:"required"`
	NewPassword       string `json:"newPassword" binding:"omitempty,min=6"`
}
