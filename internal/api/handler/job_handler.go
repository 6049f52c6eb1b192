package handler

import (
	"log/slog"
	"net/http"

	"github.com/cuongbtq/printq/internal/api/dto"
	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/internal/queue"
	"github.com/gin-gonic/gin"
)

// ListQueue handles GET /api/v1/queue
func (h *JobHandler) ListQueue(c *gin.Context) {
	jobs, err := h.queue.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListQueueResponse{Jobs: dto.NewJobDTOs(jobs)})
}

// AddJob handles POST /api/v1/queue
func (h *JobHandler) AddJob(c *gin.Context) {
	var req dto.AddJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:     "Invalid request body",
			RequestID: RequestID(c),
		})
		return
	}

	copies := req.Copies
	switch {
	case req.Infinite:
		copies = domain.InfiniteCopies
	case copies == 0:
		copies = domain.DefaultCopies
	}

	job, err := h.queue.Add(c.Request.Context(), queue.AddRequest{
		SourceFile: req.SourceFile,
		Name:       req.Name,
		Copies:     copies,
		UseSweep:   !req.NoSweep,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	jobs, err := h.queue.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewJobDTO(len(jobs)-1, job))
}

// GetJob handles GET /api/v1/queue/:id where id is a position or a name
func (h *JobHandler) GetJob(c *gin.Context) {
	job, position, err := h.queue.FindByIdentifier(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewJobDTO(position, job))
}

// StartJob handles POST /api/v1/queue/:id/start. The request blocks until
// the printer accepted or rejected the job.
func (h *JobHandler) StartJob(c *gin.Context) {
	var req dto.StartJobRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:     "Invalid query parameters",
			RequestID: RequestID(c),
		})
		return
	}

	jobID := c.Param("id")
	h.logger.Info("Starting queued job",
		slog.String("job", jobID),
		slog.String("printer", req.Printer),
		slog.String("request_id", RequestID(c)),
	)

	progress := []string{}
	result, err := h.runner.RunQueued(c.Request.Context(), jobID, req.Printer, func(msg string) {
		progress = append(progress, msg)
	})
	if err != nil && (result == nil || !result.Success) {
		h.writeError(c, err, progress...)
		return
	}

	resp := dto.StartJobResponse{
		Success:    result.Success,
		Message:    result.Message,
		OutputFile: result.OutputFile,
		Progress:   progress,
	}
	if err != nil {
		// the print is running even though the queue could not be updated
		h.logger.Error("Queue update failed after print start",
			slog.String("job", jobID),
			slog.String("request_id", RequestID(c)),
			slog.String("error", err.Error()),
		)
		resp.Warning = err.Error()
	}

	c.JSON(http.StatusOK, resp)
}

// ListLibrary handles GET /api/v1/library
func (h *JobHandler) ListLibrary(c *gin.Context) {
	jobs, err := h.library.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListLibraryResponse{Jobs: dto.NewLibraryJobDTOs(jobs)})
}

// CloneLibraryJob handles POST /api/v1/library/:id/clone
func (h *JobHandler) CloneLibraryJob(c *gin.Context) {
	ctx := c.Request.Context()

	template, err := h.library.FindByIdentifier(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	job, err := h.library.CloneIntoQueue(ctx, template)
	if err != nil {
		h.writeError(c, err)
		return
	}

	jobs, err := h.queue.List(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewJobDTO(len(jobs)-1, job))
}

// ListPrinters handles GET /api/v1/printers
func (h *JobHandler) ListPrinters(c *gin.Context) {
	printers, err := h.printers.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListPrintersResponse{Printers: dto.NewPrinterDTOs(printers)})
}
