package pii

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LLMDetector asks a language model to label entities the lexical heuristics
// miss, mainly names, organizations and free-form addresses. It feeds the
// statistical layer: its hits carry the statistical source so the merge
// ranks them below pattern and zone evidence. Optional; the pipeline runs
// without it when no provider is configured.
type LLMDetector struct {
	llm  llms.Model
	conf float64
}

// LLMConfig selects and parameterizes the backing model.
type LLMConfig struct {
	Provider string // "openai" or "ollama"
	Model    string
	APIKey   string

	RequestsPerMinute float64
	MaxRetries        int
}

// NewLLMDetector creates a detector backed by the configured provider,
// wrapped with rate limiting and retries.
func NewLLMDetector(config LLMConfig) (*LLMDetector, error) {
	model, err := createLLM(config)
	if err != nil {
		return nil, err
	}
	limited := NewRateLimitedLLM(model, RateLimitConfig{
		RequestsPerMinute: config.RequestsPerMinute,
		MaxRetries:        config.MaxRetries,
	})
	return &LLMDetector{llm: limited, conf: 0.72}, nil
}

func createLLM(config LLMConfig) (llms.Model, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		if config.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is not set")
		}
		return openai.New(
			openai.WithModel(config.Model),
			openai.WithToken(config.APIKey),
		)
	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://127.0.0.1:11434"
		}
		return ollama.New(
			ollama.WithModel(config.Model),
			ollama.WithServerURL(host),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}
}

const nerPrompt = `You are a named entity recognizer. List every person name,
organization, street address and location in the text below. Respond with a
JSON array of objects with "type" (one of "name", "organization", "address",
"location") and "value" (the exact text span). Respond with the JSON array
only.

Text:
%s`

type llmEntity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// DetectContext labels one block of text. Values the model returns that do
// not occur verbatim in the text are discarded.
func (d *LLMDetector) DetectContext(ctx context.Context, text string) ([]candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	resp, err := d.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(nerPrompt, text)),
	})
	if err != nil {
		return nil, fmt.Errorf("error generating NER content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	parsed, err := parseNERResponse(resp.Choices[0].Content)
	if err != nil {
		log.WithError(err).Warn("Discarding unparseable NER response")
		return nil, nil
	}

	var out []candidate
	for _, e := range parsed {
		t, ok := llmEntityType(e.Type)
		if !ok || e.Value == "" {
			continue
		}
		for idx := 0; idx < len(text); {
			pos := strings.Index(text[idx:], e.Value)
			if pos < 0 {
				break
			}
			start := idx + pos
			out = append(out, candidate{
				Type:       t,
				Start:      start,
				End:        start + len(e.Value),
				Value:      e.Value,
				Confidence: d.conf,
				Source:     SourceStatistical,
			})
			idx = start + len(e.Value)
		}
	}
	return out, nil
}

// parseNERResponse tolerates models that wrap the array in a code fence.
func parseNERResponse(content string) ([]llmEntity, error) {
	content = strings.TrimSpace(content)
	if i := strings.Index(content, "["); i >= 0 {
		if j := strings.LastIndex(content, "]"); j > i {
			content = content[i : j+1]
		}
	}
	var out []llmEntity
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("error parsing NER response: %w", err)
	}
	return out, nil
}

func llmEntityType(s string) (EntityType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "person":
		return EntityName, true
	case "organization", "org":
		return EntityOrg, true
	case "address":
		return EntityAddress, true
	case "location":
		return EntityLocation, true
	default:
		return "", false
	}
}
