package job

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/jobs"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Handler handles batch job API endpoints
type Handler struct {
	queue  *jobs.Queue
	logger ectologger.Logger
}

// NewHandler creates a new job handler
func NewHandler(queue *jobs.Queue, logger ectologger.Logger) *Handler {
	return &Handler{
		queue:  queue,
		logger: logger,
	}
}

// Register registers batch job routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/statistics", h.Statistics)
	g.GET("/:id", h.Get)
	g.POST("/:id/start", h.Start)
	g.POST("/:id/cancel", h.Cancel)
	g.DELETE("/:id", h.Delete)
}

// Create creates a new batch job in pending state
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "job_handler.Create")
	defer span.End()

	var req models.CreateBatchJobRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created := h.queue.CreateJob(ctx, req)

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id": created.ID,
		"kind":   created.Kind,
	}).Info("Created batch job")

	return c.JSON(http.StatusCreated, created)
}

// List returns all known jobs in creation order
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "job_handler.List")
	defer span.End()

	return c.JSON(http.StatusOK, h.queue.ListJobs(ctx))
}

// Statistics returns the job rollup for the operations dashboard
func (h *Handler) Statistics(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "job_handler.Statistics")
	defer span.End()

	return c.JSON(http.StatusOK, h.queue.Statistics(ctx))
}

// Get returns a job by ID
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "job_handler.Get")
	defer span.End()

	job, ok := h.queue.GetJob(ctx, c.Param("id"))
	if !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "job not found")
	}

	return c.JSON(http.StatusOK, job)
}

// StartResponse reports whether the job began processing or was queued
// behind the concurrency limit.
type StartResponse struct {
	Started bool             `json:"started"`
	Job     *models.BatchJob `json:"job"`
}

// Start requests processing of a pending job
func (h *Handler) Start(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "job_handler.Start")
	defer span.End()

	id := c.Param("id")
	started, err := h.queue.StartJob(ctx, id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return httperror.NewHTTPError(http.StatusNotFound, "job not found")
		}
		if errors.Is(err, jobs.ErrNoRunner) {
			return httperror.NewHTTPError(http.StatusBadRequest, "no runner registered for job kind")
		}
		return err
	}

	job, _ := h.queue.GetJob(ctx, id)
	return c.JSON(http.StatusOK, StartResponse{Started: started, Job: job})
}

// Cancel cancels a pending or processing job
func (h *Handler) Cancel(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "job_handler.Cancel")
	defer span.End()

	id := c.Param("id")
	cancelled := h.queue.CancelJob(ctx, id)
	job, ok := h.queue.GetJob(ctx, id)
	if !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "job not found")
	}
	if !cancelled && !job.Status.IsTerminal() {
		return httperror.NewHTTPError(http.StatusConflict, "job cannot be cancelled")
	}

	return c.JSON(http.StatusOK, job)
}

// Delete removes a job record. Processing jobs must be cancelled first.
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "job_handler.Delete")
	defer span.End()

	if err := h.queue.DeleteJob(ctx, c.Param("id")); err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return httperror.NewHTTPError(http.StatusNotFound, "job not found")
		}
		if errors.Is(err, jobs.ErrJobRunning) {
			return httperror.NewHTTPError(http.StatusConflict, "job is processing; cancel it first")
		}
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
