package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medicare-api/internal/handler"
	"github.com/jwalitptl/medicare-api/internal/middleware"
	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/service/user"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

type Handler struct {
	svc  *user.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *user.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/me", h.auth.Authed(h.GetMe))
		users.GET("/me/activity", h.auth.Authed(h.GetActivity))
		users.GET("/all", h.auth.Authed(h.ListUsers, model.RoleAdmin))
		users.GET("/:id", h.auth.Authed(h.GetUser))
		users.POST("/update-profile", h.auth.Authed(h.UpdateProfile))
		users.POST("/upload-photo", h.auth.Authed(h.UploadPhoto))
		users.POST("/delete-photo", h.auth.Authed(h.DeletePhoto))
	}
}

func (h *Handler) GetMe(c *gin.Context, actor model.Actor) {
	u, err := h.svc.GetSelf(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) GetUser(c *gin.Context, _ model.Actor) {
	id, err := handler.ParamID(c, "User")
	if err != nil {
		_ = c.Error(err)
		return
	}

	u, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) ListUsers(c *gin.Context, _ model.Actor) {
	users, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

func (h *Handler) UpdateProfile(c *gin.Context, actor model.Actor) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("No fields to update", err))
		return
	}

	u, err := h.svc.UpdateProfile(c.Request.Context(), actor, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": u})
}

func (h *Handler) UploadPhoto(c *gin.Context, actor model.Actor) {
	upload, err := handler.ReadFormFile(c, "photo")
	if err != nil {
		_ = c.Error(handler.UploadError(err, "No photo file provided"))
		return
	}

	photo, u, err := h.svc.UploadPhoto(c.Request.Context(), actor, upload.FileName, upload.Data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Profile photo uploaded successfully",
		"photo_url": photo,
		"user":      u,
	})
}

func (h *Handler) DeletePhoto(c *gin.Context, actor model.Actor) {
	if err := h.svc.DeletePhoto(c.Request.Context(), actor); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Profile photo deleted successfully"))
}

func (h *Handler) GetActivity(c *gin.Context, actor model.Actor) {
	logs, err := h.svc.RecentActivity(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}
