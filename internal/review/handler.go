package review

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/queue"
	"greenintellect-backend/internal/shared/server/middleware"
	"greenintellect-backend/internal/shared/server/respond"
	"greenintellect-backend/internal/shared/telemetry"
	"greenintellect-backend/internal/uploads"
)

// Handler serves the admin review routes.
type Handler struct {
	Sessions *Registry
	Uploads  *uploads.Service
}

func NewHandler(sessions *Registry, svc *uploads.Service) *Handler {
	return &Handler{Sessions: sessions, Uploads: svc}
}

// RegisterRoutes attaches admin routes. The group must already require the
// admin role.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/uploads", h.list)
	rg.GET("/uploads/:id", h.get)
	rg.GET("/uploads/:id/download", h.download)
	rg.GET("/uploads/:id/download-url", h.downloadURL)
	rg.GET("/uploads/:id/analysis", h.analysis)
	rg.POST("/uploads/:id/approve", h.approve)
	rg.POST("/uploads/:id/reject", h.reject)
	rg.POST("/uploads/:id/status", h.setStatus)
	rg.DELETE("/uploads/:id", h.remove)
	rg.DELETE("/session", h.closeSession)
	rg.GET("/stats", h.stats)
}

type actionResponse struct {
	Upload *uploads.Upload `json:"upload,omitempty"`
	Notice Notice          `json:"notice"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *Handler) session(c *gin.Context) *Session {
	return h.Sessions.Session(middleware.UserIDFromContext(c))
}

func (h *Handler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	result, err := h.session(c).List(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load uploads", nil)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := respond.IDParam(c, "upload")
	if !ok {
		return
	}
	c.Set(middleware.UploadIDKey, id)
	u, err := h.session(c).Get(c.Request.Context(), id)
	if err != nil {
		uploads.WriteError(c, err, "failed to load upload")
		return
	}
	respond.OK(c, u)
}

func (h *Handler) download(c *gin.Context) {
	id, ok := respond.IDParam(c, "upload")
	if !ok {
		return
	}
	c.Set(middleware.UploadIDKey, id)
	ctx := c.Request.Context()

	u, err := h.session(c).Get(ctx, id)
	if err != nil {
		writeActionError(c, err, downloadFailedNotice())
		return
	}
	rc, err := h.Uploads.OpenFile(ctx, u)
	if err != nil {
		writeActionError(c, err, downloadFailedNotice())
		return
	}
	defer rc.Close()

	if err := respond.StreamAttachment(c, u.FileName, "application/pdf", rc); err != nil {
		telemetry.Warn("review.download.interrupted", map[string]any{"upload_id": id, "error": err.Error()})
	}
}

type downloadURLResponse struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// downloadURL hands out a presigned link when the store supports it and
// otherwise points at the streaming download route.
func (h *Handler) downloadURL(c *gin.Context) {
	id, ok := respond.IDParam(c, "upload")
	if !ok {
		return
	}
	c.Set(middleware.UploadIDKey, id)
	ctx := c.Request.Context()

	u, err := h.session(c).Get(ctx, id)
	if err != nil {
		writeActionError(c, err, downloadFailedNotice())
		return
	}
	link, expiresAt, ok, err := h.Uploads.DownloadURL(ctx, u)
	if err != nil {
		writeActionError(c, err, downloadFailedNotice())
		return
	}
	if !ok {
		respond.OK(c, downloadURLResponse{URL: strings.TrimSuffix(c.Request.URL.Path, "-url")})
		return
	}
	respond.OK(c, downloadURLResponse{URL: link, ExpiresAt: &expiresAt})
}

func (h *Handler) analysis(c *gin.Context) {
	id, ok := respond.IDParam(c, "upload")
	if !ok {
		return
	}
	c.Set(middleware.UploadIDKey, id)
	u, err := h.session(c).Get(c.Request.Context(), id)
	if err != nil {
		uploads.WriteError(c, err, "failed to load upload")
		return
	}
	uploads.ServeAnalysis(c, u)
}

func (h *Handler) approve(c *gin.Context) {
	h.apply(c, uploads.Approve())
}

func (h *Handler) reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeActionError(c, uploads.ErrReasonRequired, updateFailedNotice(uploads.ErrReasonRequired))
		return
	}
	h.apply(c, uploads.Reject(req.Reason))
}

func (h *Handler) setStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	t, ok := transitionFor(uploads.Status(req.Status), req.Reason)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unsupported status", nil)
		return
	}
	h.apply(c, t)
}

func (h *Handler) apply(c *gin.Context, t uploads.Transition) {
	id, ok := respond.IDParam(c, "upload")
	if !ok {
		return
	}
	c.Set(middleware.UploadIDKey, id)
	ctx := queue.WithRequestID(c.Request.Context(), c.GetString("requestId"))

	sess := h.session(c)
	before, _ := sess.Get(ctx, id)
	u, notice, err := sess.Apply(ctx, id, t)
	if err != nil {
		writeActionError(c, err, notice)
		return
	}
	c.Set(middleware.StatusTransitionKey, string(before.Status)+"->"+string(u.Status))
	respond.OK(c, actionResponse{Upload: &u, Notice: notice})
}

func (h *Handler) remove(c *gin.Context) {
	id, ok := respond.IDParam(c, "upload")
	if !ok {
		return
	}
	c.Set(middleware.UploadIDKey, id)
	notice, err := h.session(c).Delete(c.Request.Context(), id)
	if err != nil {
		writeActionError(c, err, notice)
		return
	}
	respond.OK(c, actionResponse{Notice: notice})
}

func (h *Handler) closeSession(c *gin.Context) {
	h.Sessions.Close(middleware.UserIDFromContext(c))
	c.Status(http.StatusNoContent)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.Uploads.Stats(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load stats", nil)
		return
	}
	respond.OK(c, stats)
}

func transitionFor(status uploads.Status, reason string) (uploads.Transition, bool) {
	switch status {
	case uploads.StatusApproved:
		return uploads.Approve(), true
	case uploads.StatusRejected:
		return uploads.Reject(reason), true
	case uploads.StatusProcessing:
		return uploads.MarkProcessing(), true
	case uploads.StatusFailed:
		return uploads.MarkFailed(reason), true
	default:
		return uploads.Transition{}, false
	}
}

func writeActionError(c *gin.Context, err error, notice Notice) {
	details := gin.H{"notice": notice}
	switch {
	case errors.Is(err, ErrUpdateInProgress):
		respond.Error(c, http.StatusConflict, "update_in_progress", notice.Description, details)
	case errors.Is(err, ErrSessionClosed):
		respond.Error(c, http.StatusConflict, "session_closed", "review session closed", details)
	case errors.Is(err, uploads.ErrReasonRequired):
		respond.Error(c, http.StatusBadRequest, "validation_error", notice.Description, details)
	case errors.Is(err, uploads.ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", notice.Description, details)
	case errors.Is(err, uploads.ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", notice.Description, details)
	case errors.Is(err, uploads.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", notice.Description, details)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", notice.Description, details)
	}
}
