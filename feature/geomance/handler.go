package geomance

import (
	"encoding/json"
	"errors"
	"io"

	"geomancer/core/logger"
	"geomancer/core/merge"
	"geomancer/core/output"
	"geomancer/core/server"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for merge jobs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the job routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	api := app.Group("/api")
	api.Post("/geomance", h.HandleSubmit)
	api.Get("/geomance-results/:key", h.HandleResult)
	api.Get("/jobs", h.HandleJobs)
	app.Get(server.DownloadPath+":name", h.HandleDownload)
}

// SubmitResponse is returned for an accepted job.
type SubmitResponse struct {
	SessionKey string `json:"session_key"`
}

// ResultResponse is the polling response. Status and Result are set once
// Ready is true.
type ResultResponse struct {
	Ready  bool            `json:"ready"`
	Status string          `json:"status,omitempty"`
	Result json.RawMessage `json:"result,omitempty" swaggertype:"object"`
}

// HandleSubmit validates an upload and queues a merge job.
// @Summary Submit a merge job
// @Description Upload a CSV or XLSX file with one geography field definition. The file is validated before the job is queued.
// @Tags geomance
// @Accept multipart/form-data
// @Produce json
// @Param input_file formData file true "Spreadsheet"
// @Param field_defs formData string true "Field definition, e.g. {\"1\": {\"type\": \"city\", \"append_columns\": [\"B01003\"]}}"
// @Success 202 {object} SubmitResponse
// @Failure 400 {object} map[string]string "Invalid upload"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /api/geomance [post]
func (h *Handler) HandleSubmit(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	fh, err := c.FormFile("input_file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "input_file is required"})
	}
	var defs map[string]merge.FieldSpec
	if err := json.Unmarshal([]byte(c.FormValue("field_defs")), &defs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "field_defs must be a JSON object"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	key, err := h.service.Submit(c.UserContext(), fh.Filename, data, defs)
	if err != nil {
		var ierr *InputError
		if errors.As(err, &ierr) {
			l.Info("Upload rejected", zap.String("filename", fh.Filename), zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Job submission failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(SubmitResponse{SessionKey: key})
}

// HandleResult polls a job.
// @Summary Poll a merge job
// @Description Returns ready=false while the job runs. A finished result is returned once and then deleted.
// @Tags geomance
// @Produce json
// @Param key path string true "Session key"
// @Success 200 {object} ResultResponse
// @Failure 404 {object} map[string]string "Unknown job"
// @Router /api/geomance-results/{key} [get]
func (h *Handler) HandleResult(c *fiber.Ctx) error {
	res, ready, err := h.service.Result(c.UserContext(), c.Params("key"))
	if errors.Is(err, ErrUnknownJob) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Result poll failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !ready {
		return c.JSON(ResultResponse{Ready: false})
	}
	return c.JSON(ResultResponse{Ready: true, Status: res.Status, Result: res.Result})
}

// HandleDownload streams a merged file.
// @Summary Download a merged file
// @Tags geomance
// @Produce octet-stream
// @Param name path string true "Artifact name"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string "Not found"
// @Router /download/{name} [get]
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	name := c.Params("name")
	art, err := h.service.Download(c.UserContext(), name)
	if errors.Is(err, output.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "file not found"})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Download failed", zap.String("name", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, art.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+art.Name+`"`)
	return c.SendStream(art.Body, int(art.Size))
}

// HandleJobs lists recent jobs.
// @Summary List recent jobs
// @Tags geomance
// @Produce json
// @Param limit query int false "Maximum jobs (default 50)"
// @Success 200 {array} models.JobRecord
// @Failure 501 {object} map[string]string "History disabled"
// @Router /api/jobs [get]
func (h *Handler) HandleJobs(c *fiber.Ctx) error {
	jobs, err := h.service.Jobs(c.UserContext(), c.QueryInt("limit", 50))
	if errors.Is(err, ErrHistoryDisabled) {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Job listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(jobs)
}
