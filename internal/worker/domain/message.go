package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PrintRequest asks the worker to run one queue entry
type PrintRequest struct {
	RequestID string `json:"request_id"`
	Job       string `json:"job"`
	Printer   string `json:"printer,omitempty"` // empty selects the first printer
}

// ParsePrintRequest decodes and checks a delivery body
func ParsePrintRequest(body []byte) (PrintRequest, error) {
	var req PrintRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return PrintRequest{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	if _, err := uuid.Parse(req.RequestID); err != nil {
		return PrintRequest{}, fmt.Errorf("%w: request_id must be a valid UUID", ErrInvalidMessage)
	}

	if strings.TrimSpace(req.Job) == "" {
		return PrintRequest{}, fmt.Errorf("%w: job is required", ErrInvalidMessage)
	}

	return req, nil
}
