package companies

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/shared/server/middleware"
	"greenintellect-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the companies service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// CompanyView adds the derived risk level to a company.
type CompanyView struct {
	Company
	RiskLevel string `json:"riskLevel"`
}

// View decorates c with its risk level.
func View(c Company) CompanyView {
	return CompanyView{Company: c, RiskLevel: RiskLevel(c.OverallScore)}
}

// RegisterRoutes attaches read routes for authenticated users.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/companies", h.list)
	rg.GET("/companies/:id", h.get)
}

// RegisterAdminRoutes attaches admin edit routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/companies", h.create)
	rg.PUT("/companies/:id", h.update)
	rg.DELETE("/companies/:id", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), Filter{
		Search:   c.Query("search"),
		Industry: c.Query("industry"),
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list companies", nil)
		return
	}
	views := make([]CompanyView, 0, len(items))
	for _, item := range items {
		views = append(views, View(item))
	}
	respond.OK(c, gin.H{"items": views})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := respond.IDParam(c, "company")
	if !ok {
		return
	}
	c.Set(middleware.CompanyIDKey, id)
	item, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch company")
		return
	}
	respond.OK(c, View(item))
}

func (h *Handler) create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	item, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, "failed to create company")
		return
	}
	c.Set(middleware.CompanyIDKey, item.ID)
	respond.JSON(c, http.StatusCreated, View(item))
}

func (h *Handler) update(c *gin.Context) {
	id, ok := respond.IDParam(c, "company")
	if !ok {
		return
	}
	c.Set(middleware.CompanyIDKey, id)
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	item, err := h.Svc.Update(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err, "failed to update company")
		return
	}
	respond.OK(c, View(item))
}

func (h *Handler) remove(c *gin.Context) {
	id, ok := respond.IDParam(c, "company")
	if !ok {
		return
	}
	c.Set(middleware.CompanyIDKey, id)
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "failed to delete company")
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "company not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
