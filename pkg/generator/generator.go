// Package generator produces lesson plans through an AI model.
//
// The entitlement engine gates every call: handlers consume a generation
// first and only then invoke a Generator. Generators never see accounts.
package generator

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/lessonkit/pkg/validator"
)

var (
	ErrEmptyResponse = errors.New("generator.errors.empty_response")
	ErrUpstream      = errors.New("generator.errors.upstream")
	ErrMissingAPIKey = errors.New("generator: missing api key")
)

// Education levels offered in the lesson form.
var EducationLevels = []string{"Educação Infantil", "Ensino Fundamental", "Ensino Médio"}

// Generator turns a lesson request into a structured plan.
type Generator interface {
	Generate(ctx context.Context, req LessonRequest) (*LessonPlan, error)
}

// LessonRequest is the teacher's input.
type LessonRequest struct {
	Date           string `json:"date"`
	Grade          string `json:"grade"`
	Subject        string `json:"subject"`
	Topic          string `json:"topic"`
	SchoolName     string `json:"school_name"`
	TeacherName    string `json:"teacher_name"`
	EducationLevel string `json:"education_level"`
}

func (r LessonRequest) Validate() error {
	return validator.Apply(
		validator.Required("grade", r.Grade),
		validator.Required("subject", r.Subject),
		validator.Required("topic", r.Topic),
		validator.MaxLen("topic", r.Topic, 500),
		validator.Required("education_level", r.EducationLevel),
		validator.OneOf("education_level", r.EducationLevel, EducationLevels),
	)
}

// LessonPlan is a generated plan.
type LessonPlan struct {
	LessonRequest
	BNCCSkills  []string  `json:"bncc_skills"`
	Objectives  []string  `json:"objectives"`
	Methodology string    `json:"methodology"`
	Resources   []string  `json:"resources"`
	Assessment  []string  `json:"assessment"`
	CreatedAt   time.Time `json:"created_at"`
}

// Config selects the model.
type Config struct {
	APIKey      string  `env:"GEMINI_API_KEY"`
	Model       string  `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	Temperature float32 `env:"GEMINI_TEMPERATURE" envDefault:"0.8"`
}
