package model

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required"`
	FullName   string  `json:"full_name" binding:"required"`
	Role       Role    `json:"role" binding:"required,role"`
	Phone      *string `json:"phone"`
	NMCUID     *string `json:"nmc_uid"`
	IsDiabetic bool    `json:"is_diabetic"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult carries a fresh token and the caller's summary.
type LoginResult struct {
	Token string
	User  *User
}
