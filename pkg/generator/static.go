package generator

import (
	"context"
	"time"
)

// Static returns a fixed plan built from the request. Used in development
// when no model API key is configured.
type Static struct {
	Now func() time.Time
}

var _ Generator = Static{}

func (s Static) Generate(_ context.Context, req LessonRequest) (*LessonPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return &LessonPlan{
		LessonRequest: req,
		BNCCSkills:    []string{"EF00XX01: habilidade de exemplo para " + req.Subject},
		Objectives: []string{
			"Compreender os conceitos centrais de " + req.Topic,
			"Aplicar " + req.Topic + " em situações do cotidiano",
		},
		Methodology: "Aula expositiva dialogada seguida de atividade em grupos sobre " + req.Topic + ".",
		Resources:   []string{"Quadro", "Projetor", "Material impresso"},
		Assessment:  []string{"Participação", "Atividade em grupo"},
		CreatedAt:   now().UTC(),
	}, nil
}
