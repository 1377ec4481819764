package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// Load loads dotenv files and parses T from the process environment.
func Load[T any](files ...string) (*T, error) {
	if len(files) == 0 {
		if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Join(ErrLoadingEnvFile, err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return nil, errors.Join(ErrLoadingEnvFile, err)
	}

	v, err := env.ParseAs[T]()
	if err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	return &v, nil
}

// Parse reads T from environ only, ignoring the process environment.
func Parse[T any](environ map[string]string) (*T, error) {
	var v T
	if err := env.ParseWithOptions(&v, env.Options{Environment: environ}); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	return &v, nil
}

// MustLoad is Load that panics on failure. For use in main.
func MustLoad[T any](files ...string) *T {
	v, err := Load[T](files...)
	if err != nil {
		panic(err)
	}
	return v
}
