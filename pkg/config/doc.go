// Package config fills typed configuration structs from the environment.
//
// Struct fields are tagged for github.com/caarlos0/env. Before parsing,
// Load merges dotenv files into the process environment without overriding
// variables that are already set:
//
//	type App struct {
//		Env  string `env:"APP_ENV" envDefault:"development"`
//		Port int    `env:"HTTP_PORT" envDefault:"8080"`
//	}
//
//	cfg, err := config.Load[App]()
//
// With no file arguments Load tries ".env" and ignores its absence.
package config
