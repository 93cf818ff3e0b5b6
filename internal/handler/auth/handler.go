package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medicare-api/internal/handler"
	"github.com/jwalitptl/medicare-api/internal/middleware"
	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/service/auth"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
	"github.com/jwalitptl/medicare-api/pkg/validator"
)

const (
	msgDoctorPending = "Registration successful! Your account is pending admin approval. You will be notified once verified."
	msgRegistered    = "User registered successfully"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the auth endpoints; extra runs before each of them.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, extra ...gin.HandlerFunc) {
	group := r.Group("/auth", extra...)
	{
		group.POST("/register", h.Register)
		group.POST("/login", h.Login)
		group.GET("/verify", h.Verify)
	}
}

type registerResponse struct {
	Message          string `json:"message"`
	UserID           string `json:"user_id"`
	RequiresApproval bool   `json:"requires_approval"`
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(validator.Message(err, "Missing required fields", "Missing required fields"), err))
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := registerResponse{Message: msgRegistered, UserID: user.ID.String()}
	if user.Role == model.RoleDoctor {
		resp.Message = msgDoctorPending
		resp.RequiresApproval = true
	}
	c.JSON(http.StatusCreated, resp)
}

type loginUser struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Role              model.Role `json:"role"`
	FullName          string     `json:"full_name"`
	IsProfileComplete bool       `json:"is_profile_complete"`
}

type loginResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    loginUser `json:"user"`
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("Email and password required", err))
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   res.Token,
		User: loginUser{
			ID:                res.User.ID.String(),
			Email:             res.User.Email,
			Role:              res.User.Role,
			FullName:          res.User.FullName,
			IsProfileComplete: res.User.IsProfileComplete,
		},
	})
}

type verifiedUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Iat    int64  `json:"iat"`
	Exp    int64  `json:"exp"`
}

// Verify reads the token itself rather than going through Authed; it answers
// with its own messages for a missing or malformed header.
func (h *Handler) Verify(c *gin.Context) {
	token, err := middleware.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		msg := "Invalid token format"
		if errors.Is(err, middleware.ErrNoAuthHeader) {
			msg = "No token provided"
		}
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse(msg))
		return
	}

	claims, err := h.svc.Verify(token)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user := verifiedUser{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
	if claims.IssuedAt != nil {
		user.Iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		user.Exp = claims.ExpiresAt.Unix()
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}
