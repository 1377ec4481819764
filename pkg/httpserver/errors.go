package httpserver

import "errors"

var (
	ErrStart    = errors.New("httpserver: listener failed")
	ErrShutdown = errors.New("httpserver: graceful shutdown did not finish in time")
)
