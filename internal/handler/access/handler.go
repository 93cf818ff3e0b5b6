package access

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/handler"
	"github.com/jwalitptl/medicare-api/internal/middleware"
	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/service/access"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

type Handler struct {
	svc  *access.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *access.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/access")
	{
		group.POST("/grant", h.auth.Authed(h.Grant))
		group.POST("/revoke", h.auth.Authed(h.Revoke))
		group.GET("/my-permissions", h.auth.Authed(h.ListPermissions))
	}
}

type accessRequest struct {
	DoctorID        string `json:"doctor_id"`
	PatientID       string `json:"patient_id"`
	PermissionLevel string `json:"permission_level"`
}

// parse checks the body and resolves its ids. The patient is settled before
// the doctor, and a doctor id that does not parse names no existing doctor.
func (r *accessRequest) parse(actor model.Actor, foreign string) (uuid.UUID, *uuid.UUID, error) {
	if r.DoctorID == "" {
		return uuid.Nil, nil, apperrors.BadRequest("doctor_id required", nil)
	}
	patientID, err := handler.TargetPatient(actor, r.PatientID, foreign)
	if err != nil {
		return uuid.Nil, nil, err
	}
	doctorID, err := uuid.Parse(r.DoctorID)
	if err != nil {
		return uuid.Nil, nil, apperrors.NotFound("Doctor", err)
	}
	return doctorID, patientID, nil
}

func (h *Handler) bind(c *gin.Context) (*accessRequest, bool) {
	var req accessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("doctor_id required", err))
		return nil, false
	}
	return &req, true
}

func (h *Handler) Grant(c *gin.Context, actor model.Actor) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	doctorID, patientID, err := req.parse(actor, access.MsgForeignGrant)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, err := h.svc.Grant(c.Request.Context(), actor, access.GrantInput{
		DoctorID:        doctorID,
		PatientID:       patientID,
		PermissionLevel: req.PermissionLevel,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Access granted successfully", "permission_id": id})
}

func (h *Handler) Revoke(c *gin.Context, actor model.Actor) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	doctorID, patientID, err := req.parse(actor, access.MsgForeignRevoke)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.svc.Revoke(c.Request.Context(), actor, doctorID, patientID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Access revoked successfully"))
}

func (h *Handler) ListPermissions(c *gin.Context, actor model.Actor) {
	perms, err := h.svc.ListFor(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": perms, "count": len(perms)})
}
