package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoState      = errors.New("no account state available")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
