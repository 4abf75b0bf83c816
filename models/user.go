package models

import "time"

// User roles
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User represents a platform account (student or admin)
type User struct {
	ID                  int        `json:"id"`
	Name                string     `json:"name"`
	StudentID           string     `json:"student_id"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Password            string     `json:"-"`
	Role                string     `json:"role"`
	Avatar              string     `json:"avatar"`
	IsVerified          bool       `json:"is_verified"`
	VerificationToken   string     `json:"-"`
	ResetPasswordToken  string     `json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResponse is the public projection of a user record
type UserResponse struct {
	ID         int    `json:"id"`
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Avatar     string `json:"avatar"`
	IsVerified bool   `json:"is_verified"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		StudentID:  u.StudentID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       u.Role,
		Avatar:     u.Avatar,
		IsVerified: u.IsVerified,
	}
}
