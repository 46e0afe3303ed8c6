package cmd

import "errors"

var (
	ErrDatabaseURLRequired    = errors.New("database url is required")
	ErrUnsupportedPersistence = errors.New("unsupported persistence provider")
	ErrUnsupportedEventBus    = errors.New("unsupported event bus provider")
)
