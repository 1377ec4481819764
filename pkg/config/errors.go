package config

import "errors"

var (
	ErrLoadingEnvFile = errors.New("config: failed to load env file")
	ErrParsingConfig  = errors.New("config: failed to parse configuration")
)
