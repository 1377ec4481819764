package entitlement

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/lessonkit/handler"
	engine "github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/generator"
	"github.com/dmitrymomot/lessonkit/pkg/logger"
)

type lessonPlanResponse struct {
	Plan  *generator.LessonPlan `json:"plan"`
	Usage engine.UsageReport    `json:"usage"`
}

// createLessonPlan consumes one generation and then calls the generator.
// A failed generation keeps the consumed unit.
func (m *Module) createLessonPlan(ctx handler.Context, req generator.LessonRequest) handler.Response {
	if err := req.Validate(); err != nil {
		return handler.Error(err)
	}

	accountID := caller(ctx)
	if _, err := m.svc.TryConsume(ctx, accountID); err != nil {
		return handler.Error(err)
	}

	plan, err := m.gen.Generate(ctx, req)
	if err != nil {
		m.log.ErrorContext(ctx, "lesson plan generation failed",
			logger.AccountID(accountID),
			logger.Operation("generate_lesson_plan"),
			logger.Error(err),
		)
		if !errors.Is(err, generator.ErrEmptyResponse) && !errors.Is(err, generator.ErrUpstream) {
			err = errors.Join(generator.ErrUpstream, err)
		}
		return handler.Error(err)
	}

	report, err := m.svc.Usage(ctx, accountID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(lessonPlanResponse{Plan: plan, Usage: report}, handler.WithJSONStatus(http.StatusCreated))
}
