package diagnosis

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tenderly-care/diagnosis-api/internal/handler"
	"github.com/tenderly-care/diagnosis-api/internal/model"
	"github.com/tenderly-care/diagnosis-api/internal/report"
	"github.com/tenderly-care/diagnosis-api/internal/repository"
	diagnosisService "github.com/tenderly-care/diagnosis-api/internal/service/diagnosis"
	apperrors "github.com/tenderly-care/diagnosis-api/pkg/errors"
)

type Handler struct {
	service  *diagnosisService.Service
	repo     repository.DiagnosisRepository
	renderer *report.Renderer
	debug    bool
	logger   zerolog.Logger
}

func NewHandler(service *diagnosisService.Service, repo repository.DiagnosisRepository, renderer *report.Renderer, debug bool, logger zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		repo:     repo,
		renderer: renderer,
		debug:    debug,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	diagnosis := r.Group("/diagnosis")
	{
		diagnosis.POST("/", h.GenerateDiagnosis)
		diagnosis.POST("/structure", h.GenerateStructuredDiagnosis)
		diagnosis.GET("/structure/:request_id/pdf", h.DownloadReport)
		diagnosis.POST("/validate", h.ValidateSymptoms)
	}
}

// GenerateDiagnosis handles the free-text symptom flow.
func (h *Handler) GenerateDiagnosis(c *gin.Context) {
	var req model.DiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.NewValidation("invalid request body", err), h.debug)
		return
	}

	if err := req.Validate(); err != nil {
		handler.RespondError(c, apperrors.NewValidation("request validation failed", err), h.debug)
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GenerateStructuredDiagnosis handles the structured intake form flow.
func (h *Handler) GenerateStructuredDiagnosis(c *gin.Context) {
	var req model.StructuredDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.NewValidation("invalid request body", err), h.debug)
		return
	}

	if err := req.Validate(); err != nil {
		handler.RespondError(c, apperrors.NewValidation("request validation failed", err), h.debug)
		return
	}

	resp, err := h.service.GenerateStructured(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadReport renders the stored structured diagnosis as a PDF.
func (h *Handler) DownloadReport(c *gin.Context) {
	requestID := c.Param("request_id")

	resp, err := h.repo.Get(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			handler.RespondError(c, apperrors.NewNotFound("diagnosis "+requestID), h.debug)
			return
		}
		handler.RespondError(c, apperrors.NewInternal(err), h.debug)
		return
	}

	var letterhead *report.Letterhead
	if name := c.Query("clinic_name"); name != "" {
		letterhead = &report.Letterhead{Name: name, Address: c.Query("clinic_address")}
	}

	pdfBytes, err := h.renderer.Render(resp, c.Query("notes"), letterhead)
	if err != nil {
		handler.RespondError(c, err, h.debug)
		return
	}

	filename := fmt.Sprintf("diagnosis_report_%s.pdf", requestID)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// ValidateSymptoms partitions submitted symptoms into usable and unusable
// without calling the model provider.
func (h *Handler) ValidateSymptoms(c *gin.Context) {
	var req model.SymptomValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.NewValidation("invalid request body", err), h.debug)
		return
	}

	c.JSON(http.StatusOK, model.PartitionSymptoms(req.Symptoms))
}
