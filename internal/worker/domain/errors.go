package domain

import "errors"

var (
	// ErrInvalidMessage is returned when a delivery body is not a valid print request
	ErrInvalidMessage = errors.New("invalid print request message")

	// ErrShutdown is returned when a request was not processed because the worker stopped
	ErrShutdown = errors.New("worker shutting down")
)
