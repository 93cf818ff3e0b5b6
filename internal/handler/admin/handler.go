package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medicare-api/internal/handler"
	"github.com/jwalitptl/medicare-api/internal/middleware"
	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/service/admin"
)

type Handler struct {
	svc  *admin.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *admin.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

// RegisterRoutes mounts the admin endpoints. Every one requires the admin role.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/admin")
	{
		group.GET("/stats", h.auth.Authed(h.GetStats, model.RoleAdmin))
		group.GET("/audit-logs", h.auth.Authed(h.GetAuditLogs, model.RoleAdmin))
		group.PATCH("/users/:id/toggle-status", h.auth.Authed(h.ToggleUserStatus, model.RoleAdmin))
		group.GET("/pending-doctors", h.auth.Authed(h.GetPendingDoctors, model.RoleAdmin))
		group.PATCH("/verify-doctor/:id", h.auth.Authed(h.VerifyDoctor, model.RoleAdmin))
	}
}

func (h *Handler) GetStats(c *gin.Context, _ model.Actor) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetAuditLogs(c *gin.Context, _ model.Actor) {
	logs, err := h.svc.AuditLogs(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

func (h *Handler) ToggleUserStatus(c *gin.Context, actor model.Actor) {
	id, err := handler.ParamID(c, "User")
	if err != nil {
		_ = c.Error(err)
		return
	}

	active, err := h.svc.ToggleActive(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	msg := "User deactivated successfully"
	if active {
		msg = "User activated successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "is_active": active})
}

func (h *Handler) GetPendingDoctors(c *gin.Context, _ model.Actor) {
	doctors, err := h.svc.PendingDoctors(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending_doctors": doctors, "count": len(doctors)})
}

type verifyRequest struct {
	Action admin.VerifyAction `json:"action"`
}

func (h *Handler) VerifyDoctor(c *gin.Context, actor model.Actor) {
	var req verifyRequest
	// A missing or unreadable body leaves Action empty, which the service rejects.
	_ = c.ShouldBindJSON(&req)

	id, err := handler.ParamID(c, "Doctor")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.svc.VerifyDoctor(c.Request.Context(), actor, id, req.Action); err != nil {
		_ = c.Error(err)
		return
	}

	msg := "Doctor verified successfully"
	if req.Action == admin.VerifyReject {
		msg = "Doctor registration rejected and removed"
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse(msg))
}
