package report

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/logger"
)

// Handler serves the run history endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes registers the run history routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/runs")
	group.Get("/", h.HandleListRuns)
	group.Get("/:id", h.HandleGetRun)
	group.Get("/:id/archive", h.HandleGetArchive)
}

// HandleListRuns returns the most recent sync runs.
// @Summary List sync runs
// @Description List the most recent sync runs with their outcome counters.
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum number of runs" default(20)
// @Success 200 {array} report.Run "Runs"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	runs, err := h.service.RecentRuns(c.Context(), c.QueryInt("limit", 20))
	if err != nil {
		l.Error("run listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(runs)
}

// HandleGetRun returns one sync run with its per-entity entries.
// @Summary Get sync run
// @Description Get one sync run with all of its per-entity entries.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} report.Report "Run report"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /runs/{id} [get]
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	result, err := h.service.Run(c.Context(), c.Params("id"))
	if err != nil {
		l.Warn("run lookup failed", zap.String("run_id", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(result)
}

// HandleGetArchive returns the report document as it was uploaded to object
// storage.
// @Summary Download archived run report
// @Description Download the JSON report document uploaded to object storage for a run.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} report.Report "Archived report"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /runs/{id}/archive [get]
func (h *Handler) HandleGetArchive(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	payload, err := h.service.Archive(c.Context(), c.Params("id"))
	if err != nil {
		l.Warn("archive lookup failed", zap.String("run_id", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}
