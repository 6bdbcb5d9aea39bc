package match

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/dedup"
	"github.com/Ramsey-B/clover/pkg/ingest"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Handler handles resolution and duplicate scan API endpoints
type Handler struct {
	svc    *ingest.Service
	logger ectologger.Logger
}

// NewHandler creates a new match handler
func NewHandler(svc *ingest.Service, logger ectologger.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// Register registers resolution routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/resolve", h.Resolve)
	g.POST("/duplicates/scan", h.Scan)
}

// ResolveRequest is the request body for resolving a single reference
type ResolveRequest struct {
	Name  string `json:"name" validate:"required"`
	State string `json:"state"`
}

// Resolve resolves one raw institution reference against the registry
func (h *Handler) Resolve(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "match_handler.Resolve")
	defer span.End()

	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result := h.svc.Resolve(ctx, models.RawReference{Name: req.Name, State: req.State})

	return c.JSON(http.StatusOK, result)
}

// ScanRequest is the request body for an inline duplicate scan
type ScanRequest struct {
	EntityKind models.EntityKind `json:"entity_kind" validate:"required"`
	Records    []ScanRecordInput `json:"records" validate:"required,min=1"`
}

// ScanRecordInput is one record submitted to an inline scan
type ScanRecordInput struct {
	ID   string         `json:"id" validate:"required"`
	Name string         `json:"name,omitempty"`
	Raw  map[string]any `json:"raw,omitempty"`
}

// Scan runs duplicate detection over the submitted batch and returns the
// report. Detection is read-only; nothing is merged or removed.
func (h *Handler) Scan(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "match_handler.Scan")
	defer span.End()

	var req ScanRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	records := make([]dedup.Record, len(req.Records))
	for i, r := range req.Records {
		records[i] = dedup.Record{ID: r.ID, Name: r.Name, Raw: r.Raw}
	}

	report := h.svc.Scan(ctx, req.EntityKind, records)

	return c.JSON(http.StatusOK, report)
}
