package prometheus

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes a metrics registry in the text exposition format.
type Handler struct {
	gatherer prometheus.Gatherer
}

func New(gatherer prometheus.Gatherer) *Handler {
	return &Handler{gatherer: gatherer}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/metrics", h.Handler())
}

func (h *Handler) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}
