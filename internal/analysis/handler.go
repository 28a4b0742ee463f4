package analysis

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"greenintellect-backend/internal/companies"
	"greenintellect-backend/internal/llm"
	"greenintellect-backend/internal/shared/server/middleware"
	"greenintellect-backend/internal/shared/server/respond"
)

const (
	msgPromptRequired = "Prompt is required"
	msgUnexpected     = "An unexpected error occurred while generating analysis."
	msgTooSoon        = "Please wait a few seconds before requesting another analysis."
)

// Handler exposes the analysis proxy.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analysis", h.generate)
	rg.POST("/companies/:id/analysis", h.analyzeCompany)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Message(c, http.StatusBadRequest, msgPromptRequired)
		return
	}
	text, err := h.Svc.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		status, msg := StatusFor(err)
		respond.Message(c, status, msg)
		return
	}
	respond.OK(c, gin.H{"analysis": text})
}

func (h *Handler) analyzeCompany(c *gin.Context) {
	companyID := c.Param("id")
	if _, err := uuid.Parse(companyID); err != nil {
		respond.Message(c, http.StatusNotFound, "Company not found")
		return
	}
	c.Set(middleware.CompanyIDKey, companyID)

	result, err := h.Svc.AnalyzeCompany(c.Request.Context(), middleware.UserIDFromContext(c), companyID)
	if err != nil {
		var tooSoon *TooSoonError
		switch {
		case errors.Is(err, companies.ErrNotFound):
			respond.Message(c, http.StatusNotFound, "Company not found")
		case errors.As(err, &tooSoon):
			c.Header("Retry-After", strconv.Itoa(middleware.RetryAfterSeconds(tooSoon.RetryAfter)))
			respond.Message(c, http.StatusTooManyRequests, msgTooSoon)
		default:
			status, msg := StatusFor(err)
			respond.Message(c, status, msg)
		}
		return
	}
	respond.OK(c, result)
}

// StatusFor maps an analysis failure to the proxy's HTTP status and message.
func StatusFor(err error) (int, string) {
	if errors.Is(err, ErrPromptRequired) {
		return http.StatusBadRequest, msgPromptRequired
	}
	var lerr *llm.Error
	if !errors.As(err, &lerr) {
		return http.StatusInternalServerError, msgUnexpected
	}
	msg := lerr.Message
	if msg == "" {
		msg = msgUnexpected
	}
	switch lerr.Kind {
	case llm.KindRateLimited:
		return http.StatusTooManyRequests, msg
	case llm.KindUnauthorized:
		return http.StatusUnauthorized, msg
	case llm.KindProvider:
		if lerr.Status >= 400 && lerr.Status <= 599 {
			return lerr.Status, msg
		}
		return http.StatusBadGateway, msg
	default:
		return http.StatusInternalServerError, msg
	}
}
