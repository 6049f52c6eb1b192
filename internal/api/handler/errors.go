package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/printq/internal/api/dto"
	"github.com/cuongbtq/printq/internal/domain"
	"github.com/gin-gonic/gin"
)

// statusFor maps the domain error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidConfiguration),
		errors.Is(err, domain.ErrNoPrintersConfigured),
		errors.Is(err, domain.ErrInvalidJob),
		errors.Is(err, domain.ErrSourceFileNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGenerationFailure),
		errors.Is(err, domain.ErrUploadFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err, attaching the listing the caller needs to pick a
// valid identifier
func (h *JobHandler) writeError(c *gin.Context, err error, progress ...string) {
	status := statusFor(err)
	resp := dto.ErrorResponse{
		Error:     err.Error(),
		RequestID: RequestID(c),
		Progress:  progress,
	}

	var printerErr *domain.PrinterNotFoundError
	switch {
	case errors.As(err, &printerErr):
		resp.Printers = dto.NewPrinterDTOs(printerErr.Available)
	case errors.Is(err, domain.ErrJobNotFound):
		if jobs, listErr := h.queue.List(c.Request.Context()); listErr == nil {
			resp.Jobs = dto.NewJobDTOs(jobs)
		}
	case errors.Is(err, domain.ErrLibraryJobNotFound):
		if jobs, listErr := h.library.List(c.Request.Context()); listErr == nil {
			resp.Library = dto.NewLibraryJobDTOs(jobs)
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("request_id", resp.RequestID),
			slog.String("error", err.Error()),
		)
		if status == http.StatusInternalServerError {
			resp.Error = "Internal server error"
		}
	}

	c.JSON(status, resp)
}
