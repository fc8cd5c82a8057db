package domain

import "time"

type User struct {
	UserID            string     `json:"id" dynamodbav:"user_id"`
	Email             string     `json:"email" dynamodbav:"email"`
	Phone             *string    `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash      string     `json:"-" dynamodbav:"password_hash"`
	Role              Role       `json:"role" dynamodbav:"role"`
	Status            Status     `json:"status" dynamodbav:"status"`
	FirstName         string     `json:"first_name" dynamodbav:"first_name"`
	LastName          string     `json:"last_name" dynamodbav:"last_name"`
	Image             string     `json:"image,omitempty" dynamodbav:"image"`
	EmailVerified     bool       `json:"is_email_verified" dynamodbav:"email_verified"`
	Verified          bool       `json:"is_verified" dynamodbav:"verified"`
	AccountWith       string     `json:"account_with,omitempty" dynamodbav:"account_with"` // "EMAIL" | "GOOGLE"
	FCMToken          *string    `json:"-" dynamodbav:"fcm_token"`
	IsDeleted         bool       `json:"-" dynamodbav:"is_deleted"`
	PasswordChangedAt *time.Time `json:"-" dynamodbav:"password_changed_at"`
	CreatedAt         time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Image     *string `json:"image"`
	FCMToken  *string `json:"fcm_token"`
}
