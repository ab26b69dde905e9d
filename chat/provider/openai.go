// Package provider adapts text-generation backends to the chat.Generator
// boundary.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// OpenAI generates text through the OpenAI Responses API. A generator is
// either free-form or, when constructed with WithJSONSchema, constrained to a
// strict JSON-schema response format; the session manager and query
// understander each get their own schema-constrained instance while answer
// generation uses a free-form one.
type OpenAI struct {
	client          *openai.Client
	model           string
	maxOutputTokens int64
	format          *responses.ResponseFormatTextJSONSchemaConfigParam
}

// Option configures an OpenAI generator.
type Option func(*OpenAI)

// WithJSONSchema constrains responses to the given strict schema.
func WithJSONSchema(name string, schema map[string]any) Option {
	return func(g *OpenAI) {
		g.format = &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:   name,
			Schema: schema,
			Strict: openai.Bool(true),
			Type:   "json_schema",
		}
	}
}

// WithMaxOutputTokens overrides the default output-token cap.
func WithMaxOutputTokens(n int64) Option {
	return func(g *OpenAI) { g.maxOutputTokens = n }
}

// NewOpenAI builds a generator for the given model. The API key comes from
// the environment unless overridden; pass option.WithAPIKey through NewClient
// at the call site when needed.
func NewOpenAI(client *openai.Client, model string, opts ...Option) *OpenAI {
	g := &OpenAI{
		client:          client,
		model:           model,
		maxOutputTokens: 2500,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewClient is a thin convenience over openai.NewClient for the cmd wiring.
func NewClient(apiKey string) *openai.Client {
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return &c
}

// Generate sends the prompt as a single user message and returns the raw
// output text. Rate-limit and server errors are retried on a fixed schedule
// before giving up.
func (g *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", errors.New("provider: client is nil")
	}
	if g.model == "" {
		return "", errors.New("provider: model is empty")
	}

	params := responses.ResponseNewParams{
		Model:           g.model,
		MaxOutputTokens: openai.Int(g.maxOutputTokens),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if g.format != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: g.format,
			},
		}
	}

	resp, err := callWithRetry(ctx, g.client, params)
	if err != nil {
		return "", err
	}
	return resp.OutputText(), nil
}

func callWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	rateLimitWaitTimes := []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second}
	serverErrorWaitTimes := []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second}

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := client.Responses.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				if attempt < maxRetries-1 {
					select {
					case <-ctx.Done():
						return nil, ctx.Err()
					case <-time.After(rateLimitWaitTimes[attempt]):
					}
					continue
				}
			} else if isServerError(err) {
				if attempt < maxRetries-1 {
					select {
					case <-ctx.Done():
						return nil, ctx.Err()
					case <-time.After(serverErrorWaitTimes[attempt]):
					}
					continue
				}
			}
			return nil, err
		}
		return resp, nil
	}
	return nil, errors.New("failed after 3 attempts due to OpenAI API issues")
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

// summaryResponse mirrors the summarization extraction shape for schema
// generation. The core's tolerant decode stays the source of truth; the
// schema only constrains what the model is allowed to emit.
type summaryResponse struct {
	UserProfile struct {
		Preferences []string `json:"preferences"`
		Constraints []string `json:"constraints"`
		Interests   []string `json:"interests"`
	} `json:"user_profile"`
	KeyFacts      []string `json:"key_facts"`
	Decisions     []string `json:"decisions"`
	OpenQuestions []string `json:"open_questions"`
	Todos         []string `json:"todos"`
}

// queryAnalysisResponse mirrors the query-analysis extraction shape.
type queryAnalysisResponse struct {
	IsAmbiguous             bool     `json:"is_ambiguous"`
	RewrittenQuery          string   `json:"rewritten_query"`
	NeededContextFromMemory []string `json:"needed_context_from_memory"`
	ClarifyingQuestions     []string `json:"clarifying_questions"`
	ConfidenceScore         float64  `json:"confidence_score"`
}

// SummarySchema is the strict response schema for summarization calls.
var SummarySchema = GenerateSchema[summaryResponse]()

// QueryAnalysisSchema is the strict response schema for query-analysis calls.
var QueryAnalysisSchema = GenerateSchema[queryAnalysisResponse]()

// GenerateSchema reflects T into a JSON schema with the fixups OpenAI strict
// mode requires (every property required, no additional properties).
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	schemaObj, err := schemaToMap(schema)
	if err != nil {
		panic(err)
	}
	ensureOpenAICompliance(schemaObj)
	return schemaObj
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

const (
	propertiesKey           = "properties"
	additionalPropertiesKey = "additionalProperties"
	typeKey                 = "type"
	requiredKey             = "required"
	itemsKey                = "items"
)

func ensureOpenAICompliance(schema map[string]any) {
	if schemaType, ok := schema[typeKey].(string); ok && schemaType == "object" {
		schema[additionalPropertiesKey] = false

		if properties, ok := schema[propertiesKey].(map[string]any); ok {
			var requiredFields []string
			for propName := range properties {
				requiredFields = append(requiredFields, propName)
			}
			if len(requiredFields) > 0 {
				schema[requiredKey] = requiredFields
			}
		}
	}

	if properties, ok := schema[propertiesKey].(map[string]any); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]any); ok {
				ensureOpenAICompliance(propMap)
			}
		}
	}

	if items, ok := schema[itemsKey].(map[string]any); ok {
		ensureOpenAICompliance(items)
	}

	if additionalProps, ok := schema[additionalPropertiesKey].(map[string]any); ok {
		ensureOpenAICompliance(additionalProps)
	}
}
