package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medicare-api/internal/middleware"
	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/service/patient"
)

type Handler struct {
	svc  *patient.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *patient.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("/profile", h.auth.Authed(h.GetProfile, model.RolePatient))
		patients.GET("/list", h.auth.Authed(h.ListPatients, model.RoleAdmin, model.RoleDoctor))
		patients.GET("/health-card", h.auth.Authed(h.GetHealthCard))
	}
}

func (h *Handler) GetProfile(c *gin.Context, actor model.Actor) {
	profile, err := h.svc.Profile(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patient": profile})
}

func (h *Handler) ListPatients(c *gin.Context, _ model.Actor) {
	patients, err := h.svc.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients, "count": len(patients)})
}

func (h *Handler) GetHealthCard(c *gin.Context, actor model.Actor) {
	card, err := h.svc.HealthCard(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"health_card": card})
}
