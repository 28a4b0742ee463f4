package uploads

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/shared/server/middleware"
	"greenintellect-backend/internal/shared/server/respond"
)

// multipart framing allowance on top of the file limit
const formOverheadBytes = 1 << 20

// Handler serves the uploader's own report routes.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads", h.create)
	rg.GET("/uploads", h.list)
	rg.GET("/uploads/:id", h.get)
	rg.GET("/uploads/:id/analysis", h.downloadAnalysis)
	rg.DELETE("/uploads/:id", h.remove)
}

type listResponse struct {
	Items []Upload `json:"items"`
}

func (h *Handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.maxBytes()+formOverheadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(c, ErrTooLarge, "")
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	year, err := strconv.Atoi(strings.TrimSpace(c.PostForm("reportYear")))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "reportYear must be a number", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer f.Close()

	u, err := h.Svc.Create(c.Request.Context(), CreateInput{
		UserID:      middleware.UserIDFromContext(c),
		CompanyName: c.PostForm("companyName"),
		ReportYear:  year,
		Body:        f,
		Size:        fh.Size,
	})
	if err != nil {
		WriteError(c, err, "failed to store upload")
		return
	}
	c.Set(middleware.UploadIDKey, u.ID)
	respond.JSON(c, http.StatusCreated, u)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.ListOwn(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		WriteError(c, err, "failed to list uploads")
		return
	}
	if items == nil {
		items = []Upload{}
	}
	respond.OK(c, listResponse{Items: items})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := respond.IDParam(c, "upload")
	if !ok {
		return
	}
	c.Set(middleware.UploadIDKey, id)
	u, err := h.Svc.GetOwned(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		WriteError(c, err, "failed to load upload")
		return
	}
	respond.OK(c, u)
}

func (h *Handler) downloadAnalysis(c *gin.Context) {
	id, ok := respond.IDParam(c, "upload")
	if !ok {
		return
	}
	c.Set(middleware.UploadIDKey, id)
	u, err := h.Svc.GetOwned(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		WriteError(c, err, "failed to load upload")
		return
	}
	ServeAnalysis(c, u)
}

func (h *Handler) remove(c *gin.Context) {
	id, ok := respond.IDParam(c, "upload")
	if !ok {
		return
	}
	c.Set(middleware.UploadIDKey, id)
	if err := h.Svc.DeleteOwned(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		WriteError(c, err, "failed to delete upload")
		return
	}
	c.Status(http.StatusNoContent)
}

// ServeAnalysis writes the analysis results of a completed upload as a JSON
// attachment.
func ServeAnalysis(c *gin.Context, u Upload) {
	body, err := AnalysisResults(u)
	if err != nil {
		WriteError(c, err, "")
		return
	}
	name := strings.TrimSuffix(u.FileName, ".pdf") + "_analysis.json"
	respond.Attachment(c, name, "application/json", body)
}

// WriteError maps upload errors to HTTP responses.
func WriteError(c *gin.Context, err error, fallback string) {
	if fallback == "" {
		fallback = "internal error"
	}
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "upload not found", nil)
	case errors.Is(err, ErrReasonRequired):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Please provide a reason for rejection", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotPDF):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Only PDF files are allowed", nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "File size must be less than 50MB", nil)
	case errors.Is(err, ErrNotCompleted):
		respond.Error(c, http.StatusConflict, "not_completed", "analysis is not available yet", nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "upload was modified by someone else, reload and try again", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
