package record

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medicare-api/internal/handler"
	"github.com/jwalitptl/medicare-api/internal/middleware"
	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/service/record"
)

type Handler struct {
	svc  *record.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *record.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/records")
	{
		records.POST("/upload", h.auth.Authed(h.Upload))
		records.GET("/my-records", h.auth.Authed(h.ListMine))
		records.GET("/:id", h.auth.Authed(h.Get))
		records.GET("/:id/download", h.auth.Authed(h.Download))
		records.DELETE("/:id", h.auth.Authed(h.Delete))
	}
}

func (h *Handler) Upload(c *gin.Context, actor model.Actor) {
	upload, err := handler.ReadFormFile(c, "file")
	if err != nil {
		_ = c.Error(handler.UploadError(err, "No file provided"))
		return
	}

	patientID, err := handler.TargetPatient(actor, c.PostForm("patient_id"), record.MsgForeignPatient)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, err := h.svc.Upload(c.Request.Context(), actor, record.UploadInput{
		PatientID:   patientID,
		FileName:    upload.FileName,
		FileType:    upload.ContentType,
		Description: c.PostForm("description"),
		Data:        upload.Data,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Record uploaded successfully", "record_id": id})
}

func (h *Handler) ListMine(c *gin.Context, actor model.Actor) {
	records, err := h.svc.ListMine(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

func (h *Handler) Get(c *gin.Context, actor model.Actor) {
	id, err := handler.ParamID(c, "Record")
	if err != nil {
		_ = c.Error(err)
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

func (h *Handler) Download(c *gin.Context, actor model.Actor) {
	id, err := handler.ParamID(c, "Record")
	if err != nil {
		_ = c.Error(err)
		return
	}

	dl, err := h.svc.Download(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, dl.FileType, dl.Data)
}

func (h *Handler) Delete(c *gin.Context, actor model.Actor) {
	id, err := handler.ParamID(c, "Record")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.svc.SoftDelete(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Record deleted successfully"))
}
