package domain

import "time"

// Role es el modo de chat bajo el cual opera una sesión.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleMentor  Role = "MENTOR"
)

// User representa la identidad autenticada con sus capacidades de chat.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name,omitempty"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	StudentID    string    `json:"student_id,omitempty"`
	MentorID     string    `json:"mentor_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	RoleNameStudent = "ROLE_STUDENT"
	RoleNameMentor  = "ROLE_MENTOR"
)

func (u User) hasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

func (u User) IsStudent() bool { return u.hasRole(RoleNameStudent) }

func (u User) IsMentor() bool { return u.hasRole(RoleNameMentor) }
