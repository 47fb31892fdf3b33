package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/logger"
	"github.com/markdave123-py/papernotes/internal/models"
)

// GeminiLLM is the Gemini counterpart of OpenAIClient. Both operations use
// JSON mode with a response schema.
type GeminiLLM struct {
	client    *genai.Client
	modelName string
	limiter   *Limiter
	log       logger.Logger
}

var (
	_ core.NoteSynthesizer  = (*GeminiLLM)(nil)
	_ core.QuestionAnswerer = (*GeminiLLM)(nil)
)

func NewGeminiLLM(ctx context.Context, apiKey, modelName string, limiter *Limiter, log logger.Logger, opts ...option.ClientOption) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, core.ConfigError("gemini", fmt.Errorf("GEMINI_API_KEY is not set: %w", core.ErrMissingCredential))
	}
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, core.ConfigError("gemini", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{client: cl, modelName: modelName, limiter: limiter, log: log}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

var (
	noteSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"note":        {Type: genai.TypeString, Description: "the note text"},
			"pageNumbers": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeInteger}},
		},
		Required: []string{"note", "pageNumbers"},
	}
	geminiNotesSchema = &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{"notes": {Type: genai.TypeArray, Items: noteSchema}},
		Required:   []string{"notes"},
	}
	geminiAnswersSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"answers": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"answer":            {Type: genai.TypeString},
						"followupQuestions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					},
					Required: []string{"answer", "followupQuestions"},
				},
			},
		},
		Required: []string{"answers"},
	}
)

func (g *GeminiLLM) SynthesizeNotes(ctx context.Context, segments []models.Segment) ([]models.Note, error) {
	if len(segments) == 0 {
		return nil, core.InputError("synthesize notes", fmt.Errorf("no text extracted from document"))
	}
	raw, err := g.generate(ctx, notesSystemPrompt, notesUserPrompt(segments), geminiNotesSchema)
	if err != nil {
		return nil, core.UpstreamError("synthesize notes", err)
	}
	payload, err := Decode(raw, validateNotes(maxPage(segments))).Result("synthesize notes")
	if err != nil {
		return nil, err
	}
	return normalizeNotes(payload.Notes), nil
}

func (g *GeminiLLM) Answer(ctx context.Context, question string, segments []models.Segment, notes []models.Note) ([]models.Answer, error) {
	raw, err := g.generate(ctx, qaSystemPrompt, qaUserPrompt(question, segments, notes), geminiAnswersSchema)
	if err != nil {
		return nil, core.UpstreamError("answer question", err)
	}
	payload, err := Decode(raw, validateAnswers).Result("answer question")
	if err != nil {
		return nil, err
	}
	return normalizeAnswers(payload.Answers), nil
}

func (g *GeminiLLM) generate(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(0)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = schema
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	g.log.Debug("gemini returned %d bytes", b.Len())
	return b.String(), nil
}
