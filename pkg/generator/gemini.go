package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini generates plans with Google's Gemini models using a JSON response
// schema.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	now    func() time.Time
}

var _ Generator = (*Gemini)(nil)

// NewGemini connects to the Gemini API with cfg.APIKey.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = lessonPlanSchema

	return &Gemini{client: client, model: model, now: time.Now}, nil
}

// Generate asks the model for a plan matching the lesson schema.
func (g *Gemini) Generate(ctx context.Context, req LessonRequest) (*LessonPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(buildPrompt(req)))
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}

	plan, err := decodePlan(text.String())
	if err != nil {
		return nil, err
	}
	plan.LessonRequest = req
	plan.CreatedAt = g.now().UTC()
	return plan, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// modelPlan mirrors lessonPlanSchema.
type modelPlan struct {
	BNCCSkills  []string `json:"bnccSkills"`
	Objectives  []string `json:"objectives"`
	Methodology string   `json:"methodology"`
	Resources   []string `json:"resources"`
	Assessment  []string `json:"assessment"`
}

func decodePlan(text string) (*LessonPlan, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	var mp modelPlan
	if err := json.Unmarshal([]byte(text), &mp); err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	if len(mp.Objectives) == 0 || mp.Methodology == "" {
		return nil, ErrEmptyResponse
	}
	return &LessonPlan{
		BNCCSkills:  mp.BNCCSkills,
		Objectives:  mp.Objectives,
		Methodology: mp.Methodology,
		Resources:   mp.Resources,
		Assessment:  mp.Assessment,
	}, nil
}

var lessonPlanSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"bnccSkills": {
			Type:        genai.TypeArray,
			Description: "Liste 2-3 códigos e descrições de habilidades da BNCC relevantes para o nível de ensino e conteúdo.",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
		"objectives": {
			Type:        genai.TypeArray,
			Description: "Liste 3-4 objetivos de aprendizagem claros e mensuráveis, adequados para a turma.",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
		"methodology": {
			Type:        genai.TypeString,
			Description: "Descreva uma metodologia de ensino detalhada com sugestões práticas de condução da aula.",
		},
		"resources": {
			Type:        genai.TypeArray,
			Description: "Liste os recursos e materiais didáticos necessários.",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
		"assessment": {
			Type:        genai.TypeArray,
			Description: "Sugira 2-3 métodos de avaliação formativa ou somativa, apropriados para a turma.",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"bnccSkills", "objectives", "methodology", "resources", "assessment"},
}
