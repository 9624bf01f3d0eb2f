package models

import (
	"context"
	"errors"
	"time"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/utils"
)

type User struct {
	ID           int       `gorm:"primary_key" json:"id"`
	CompanyId    string    `gorm:"index;type:char(36);not null" json:"company_id"`
	Name         string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email" binding:"required"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:50;default:'staff'" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name     string `json:"name" binding:"required" validate:"required"`
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=8" validate:"required,min=8"`
	Role     string `json:"role"`
}

func CreateUser(ctx context.Context, companyId string, input *NewUser) (*User, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = "staff"
	}
	user := User{
		CompanyId:    companyId,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, errors.New("email already registered")
		}
		return nil, &utils.StorageFailure{Op: "CreateUser", Err: err}
	}
	return &user, nil
}

// Authenticate verifies credentials and returns a signed JWT.
func Authenticate(ctx context.Context, email string, password string) (string, *User, error) {
	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return "", nil, errors.New("invalid credentials")
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, errors.New("invalid credentials")
	}
	token, err := utils.JwtGenerate(user.ID, user.CompanyId, user.Name)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}
