package dto

import "github.com/cuongbtq/printq/internal/domain"

// AddJobRequest is the body of POST /api/v1/queue
type AddJobRequest struct {
	SourceFile string `json:"source_file" binding:"required"`
	Name       string `json:"name"`
	Copies     int    `json:"copies"`
	Infinite   bool   `json:"infinite"`
	NoSweep    bool   `json:"no_sweep"`
}

// StartJobRequest holds the query of POST /api/v1/queue/:id/start
type StartJobRequest struct {
	Printer string `form:"printer"`
}

type JobDTO struct {
	Position      int              `json:"position"`
	Name          string           `json:"name"`
	SourceFile    string           `json:"source_file"`
	Copies        int              `json:"copies"`
	CopiesLabel   string           `json:"copies_label"`
	Status        domain.JobStatus `json:"status"`
	TargetSerial  string           `json:"target_serial,omitempty"`
	UseSweep      bool             `json:"use_sweep"`
	UseCooldown   bool             `json:"use_cooldown"`
	CooldownTemp  int              `json:"cooldown_temp"`
	UseAMS        bool             `json:"use_ams"`
	GeneratedFile string           `json:"generated_file,omitempty"`
}

type ListQueueResponse struct {
	Jobs []JobDTO `json:"jobs"`
}

type LibraryJobDTO struct {
	Position         int    `json:"position"`
	Name             string `json:"name"`
	SourceFile       string `json:"source_file"`
	Copies           int    `json:"copies"`
	CopiesLabel      string `json:"copies_label"`
	HasGeneratedFile bool   `json:"has_generated_file"`
	HasThumbnail     bool   `json:"has_thumbnail"`
}

type ListLibraryResponse struct {
	Jobs []LibraryJobDTO `json:"jobs"`
}

// PrinterDTO never carries the access code
type PrinterDTO struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Serial   string `json:"serial"`
	IP       string `json:"ip"`
}

type ListPrintersResponse struct {
	Printers []PrinterDTO `json:"printers"`
}

type StartJobResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	OutputFile string   `json:"output_file,omitempty"`
	Progress   []string `json:"progress"`
	Warning    string   `json:"warning,omitempty"`
}

// ErrorResponse carries the listing relevant to a failed lookup
type ErrorResponse struct {
	Error     string          `json:"error"`
	RequestID string          `json:"request_id,omitempty"`
	Printers  []PrinterDTO    `json:"printers,omitempty"`
	Jobs      []JobDTO        `json:"jobs,omitempty"`
	Library   []LibraryJobDTO `json:"library,omitempty"`
	Progress  []string        `json:"progress,omitempty"`
}

// NewJobDTO converts a queue entry at 0-based index
func NewJobDTO(index int, job domain.JobRecord) JobDTO {
	return JobDTO{
		Position:      index + 1,
		Name:          job.DisplayName(),
		SourceFile:    job.SourceFile,
		Copies:        job.Copies,
		CopiesLabel:   job.CopiesLabel(),
		Status:        job.Status,
		TargetSerial:  job.TargetSerial,
		UseSweep:      job.Sweep(),
		UseCooldown:   job.UseCooldown,
		CooldownTemp:  job.Cooldown(),
		UseAMS:        job.AMS(),
		GeneratedFile: job.GeneratedFile,
	}
}

func NewJobDTOs(jobs []domain.JobRecord) []JobDTO {
	out := make([]JobDTO, len(jobs))
	for i, job := range jobs {
		out[i] = NewJobDTO(i, job)
	}
	return out
}

func NewLibraryJobDTOs(jobs []domain.LibraryJob) []LibraryJobDTO {
	out := make([]LibraryJobDTO, len(jobs))
	for i, job := range jobs {
		out[i] = LibraryJobDTO{
			Position:         i + 1,
			Name:             job.DisplayName(),
			SourceFile:       job.SourceFile,
			Copies:           job.Copies,
			CopiesLabel:      job.CopiesLabel(),
			HasGeneratedFile: job.GeneratedFile != "",
			HasThumbnail:     len(job.Thumbnail) > 0,
		}
	}
	return out
}

func NewPrinterDTOs(printers []domain.PrinterConfig) []PrinterDTO {
	out := make([]PrinterDTO, len(printers))
	for i, p := range printers {
		out[i] = PrinterDTO{
			Position: i + 1,
			Name:     p.Name,
			Serial:   p.Serial,
			IP:       p.IP,
		}
	}
	return out
}
