package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/logger"
	"github.com/markdave123-py/papernotes/internal/models"
)

const answerToolName = "questionAnswer"

// OpenAIClient synthesizes notes and answers questions through the Responses API.
type OpenAIClient struct {
	client  openai.Client
	model   string
	limiter *Limiter
	log     logger.Logger

	notesSchema  map[string]any
	answerSchema map[string]any
}

var (
	_ core.NoteSynthesizer  = (*OpenAIClient)(nil)
	_ core.QuestionAnswerer = (*OpenAIClient)(nil)
)

func NewOpenAIClient(apiKey, model string, limiter *Limiter, log logger.Logger, opts ...option.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, core.ConfigError("openai", fmt.Errorf("OPENAI_API_KEY is not set: %w", core.ErrMissingCredential))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	notesSchema, err := schemaFor[notesPayload]()
	if err != nil {
		return nil, fmt.Errorf("notes schema: %w", err)
	}
	answerSchema, err := schemaFor[models.Answer]()
	if err != nil {
		return nil, fmt.Errorf("answer schema: %w", err)
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{
		client:       openai.NewClient(opts...),
		model:        model,
		limiter:      limiter,
		log:          log,
		notesSchema:  notesSchema,
		answerSchema: answerSchema,
	}, nil
}

func (c *OpenAIClient) SynthesizeNotes(ctx context.Context, segments []models.Segment) ([]models.Note, error) {
	if len(segments) == 0 {
		return nil, core.InputError("synthesize notes", fmt.Errorf("no text extracted from document"))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, core.UpstreamError("synthesize notes", err)
	}

	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:        c.model,
		Instructions: openai.String(notesSystemPrompt),
		Input:        responses.ResponseNewParamsInputUnion{OfString: openai.String(notesUserPrompt(segments))},
		Temperature:  openai.Float(0),
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema("paper_notes", c.notesSchema),
		},
	})
	if err != nil {
		return nil, core.UpstreamError("synthesize notes", err)
	}

	parsed := Decode(resp.OutputText(), validateNotes(maxPage(segments)))
	if !parsed.OK() {
		c.log.Warn("openai notes output rejected: %s", parsed.Mismatch.Reason)
	}
	payload, err := parsed.Result("synthesize notes")
	if err != nil {
		return nil, err
	}
	c.log.Debug("openai returned %d notes", len(payload.Notes))
	return normalizeNotes(payload.Notes), nil
}

// Answer exposes a single answer tool; every tool call the model makes is one answer.
func (c *OpenAIClient) Answer(ctx context.Context, question string, segments []models.Segment, notes []models.Note) ([]models.Answer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, core.UpstreamError("answer question", err)
	}

	tool := responses.ToolParamOfFunction(answerToolName, c.answerSchema, false)
	tool.OfFunction.Description = openai.String("Answer the question and suggest follow-up questions")

	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:        c.model,
		Instructions: openai.String(qaSystemPrompt),
		Input:        responses.ResponseNewParamsInputUnion{OfString: openai.String(qaUserPrompt(question, segments, notes))},
		Temperature:  openai.Float(0),
		Tools:        []responses.ToolUnionParam{tool},
		ToolChoice: responses.ResponseNewParamsToolChoiceUnion{
			OfToolChoiceMode: param.NewOpt(responses.ToolChoiceOptionsAuto),
		},
	})
	if err != nil {
		return nil, core.UpstreamError("answer question", err)
	}

	var answers []models.Answer
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		call := item.AsFunctionCall()
		if call.Name != answerToolName {
			continue
		}
		parsed := Decode(call.Arguments, validateAnswer)
		a, err := parsed.Result("answer question")
		if err != nil {
			c.log.Warn("openai answer tool call rejected: %s", parsed.Mismatch.Reason)
			return nil, err
		}
		answers = append(answers, a)
	}
	if len(answers) == 0 {
		mismatch := &SchemaMismatchError{Raw: resp.OutputText(), Reason: "model made no " + answerToolName + " tool call"}
		return nil, core.UpstreamError("answer question", mismatch)
	}
	return normalizeAnswers(answers), nil
}
