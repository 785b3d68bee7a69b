package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleMahasiswa = "mahasiswa"
	RoleDPL       = "dpl"
	RoleLPPM      = "lppm"
)

var Roles = []string{RoleMahasiswa, RoleDPL, RoleLPPM}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FullName     string     `gorm:"size:150;not null" json:"full_name"`
	NIM          string     `gorm:"column:nim;size:30;index" json:"nim,omitempty"`
	Role         string     `gorm:"size:20;index;not null" json:"role"`
	ProdiID      *uuid.UUID `gorm:"type:uuid" json:"prodi_id,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relasi
	Prodi *ProgramStudi `gorm:"foreignKey:ProdiID" json:"prodi,omitempty"`
}

func (User) TableName() string { return "users" }

// ProdiName falls back to fallback when the relation was not loaded.
func (u User) ProdiName(fallback string) string {
	if u.Prodi != nil && u.Prodi.Name != "" {
		return u.Prodi.Name
	}
	return fallback
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	FullName string     `json:"full_name" validate:"required"`
	NIM      string     `json:"nim" validate:"required_if=Role mahasiswa"`
	Role     string     `json:"role" validate:"required,oneof=mahasiswa dpl lppm"`
	ProdiID  *uuid.UUID `json:"prodi_id"`
}

type UpdateUserRequest struct {
	Email    string     `json:"email" validate:"omitempty,email"`
	FullName string     `json:"full_name"`
	NIM      string     `json:"nim"`
	Password string     `json:"password" validate:"omitempty,min=6"`
	Role     string     `json:"role" validate:"omitempty,oneof=mahasiswa dpl lppm"`
	ProdiID  *uuid.UUID `json:"prodi_id"`
}

type UserFilter struct {
	Page   int
	Limit  int
	Search string
	Role   string
	SortBy string
	Order  string
}

type LoginUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	NIM      string `json:"nim,omitempty"`
	Role     string `json:"role"`
}

type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	NIM       string     `json:"nim,omitempty"`
	Role      string     `json:"role"`
	ProdiID   *uuid.UUID `json:"prodi_id,omitempty"`
	ProdiName string     `json:"prodi_name,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewUserResponse(u User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		NIM:       u.NIM,
		Role:      u.Role,
		ProdiID:   u.ProdiID,
		ProdiName: u.ProdiName(""),
		CreatedAt: u.CreatedAt,
	}
}

type ProfileData struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type RedirectData struct {
	Route string `json:"route"`
}

type JWTClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
	Type     string    `json:"type"`
	jwt.RegisteredClaims
}

type BlacklistedToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"type:text;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (BlacklistedToken) TableName() string { return "blacklisted_tokens" }

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type RefreshTokenResponse struct {
	Token string `json:"token"`
}
