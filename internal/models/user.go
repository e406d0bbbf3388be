package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:30;uniqueIndex"`
	DisplayName string    `json:"displayName" gorm:"size:50"`
	Email       string    `json:"email" gorm:"uniqueIndex"`
	Avatar      string    `json:"avatar"`
	Profession  string    `json:"profession"`
	Password    string    `json:"-"`                                        // bcrypt hash
	FirebaseUID *string   `json:"firebaseUid,omitempty" gorm:"uniqueIndex"` // nil for local accounts
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserCompact is the public author shape embedded in posts and notifications.
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
	}
}

type CreateLocalUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30,alphanum"`
	DisplayName string `json:"displayName" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	DisplayName string `json:"displayName,omitempty" validate:"omitempty,min=2,max=50"`
	Avatar      string `json:"avatar,omitempty" validate:"omitempty,url"`
	Profession  string `json:"profession,omitempty" validate:"omitempty,max=100"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
