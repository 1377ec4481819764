package generator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lessonkit/pkg/generator"
	"github.com/dmitrymomot/lessonkit/pkg/validator"
)

func validRequest() generator.LessonRequest {
	return generator.LessonRequest{
		Date:           "2025-03-10",
		Grade:          "5º ano",
		Subject:        "Ciências",
		Topic:          "Ciclo da água",
		SchoolName:     "Escola Municipal",
		TeacherName:    "Ana",
		EducationLevel: "Ensino Fundamental",
	}
}

func TestLessonRequestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validRequest().Validate())

	req := validRequest()
	req.Topic = ""
	req.EducationLevel = "Pós-graduação"
	ve := validator.Extract(req.Validate())
	require.NotNil(t, ve)
	assert.True(t, ve.Has("topic"))
	assert.True(t, ve.Has("education_level"))
	assert.False(t, ve.Has("subject"))
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	req := validRequest()
	req.SchoolName = ""
	p := generator.BuildPrompt(req)

	assert.Contains(t, p, "- Disciplina: Ciências")
	assert.Contains(t, p, "- Conteúdo Específico: Ciclo da água")
	assert.Contains(t, p, "- Nível de Ensino: Ensino Fundamental")
	assert.NotContains(t, p, "Escola:")
}

func TestDecodePlan(t *testing.T) {
	t.Parallel()

	t.Run("plain and fenced json", func(t *testing.T) {
		t.Parallel()
		body := `{"bnccSkills":["EF05CI02"],"objectives":["Explicar o ciclo"],"methodology":"Experimento","resources":["Água"],"assessment":["Relatório"]}`
		for _, text := range []string{body, "```json\n" + body + "\n```"} {
			plan, err := generator.DecodePlan(text)
			require.NoError(t, err)
			assert.Equal(t, []string{"EF05CI02"}, plan.BNCCSkills)
			assert.Equal(t, "Experimento", plan.Methodology)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, err := generator.DecodePlan("  ")
		assert.ErrorIs(t, err, generator.ErrEmptyResponse)

		_, err = generator.DecodePlan(`{"objectives":[]}`)
		assert.ErrorIs(t, err, generator.ErrEmptyResponse)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := generator.DecodePlan("not json")
		assert.ErrorIs(t, err, generator.ErrUpstream)
	})
}

func TestNewGeminiRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := generator.NewGemini(context.Background(), generator.Config{Model: "gemini-2.5-flash"})
	assert.ErrorIs(t, err, generator.ErrMissingAPIKey)
}

func TestStatic(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	plan, err := generator.Static{Now: func() time.Time { return now }}.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Ciclo da água", plan.Topic)
	assert.NotEmpty(t, plan.Objectives)
	assert.Equal(t, now, plan.CreatedAt)

	_, err = generator.Static{}.Generate(context.Background(), generator.LessonRequest{})
	assert.Error(t, err)
}
