// Package inference adapts the Bedrock runtime into the two operations this
// system needs: categorizing sample data and generating a segmentation
// script. Single-shot request/response per call; no state is kept between
// invocations.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/rs/zerolog/log"

	"github.com/dataseg/data-segmentation-api/internal/apperr"
	"github.com/dataseg/data-segmentation-api/internal/jsonutil"
	"github.com/dataseg/data-segmentation-api/internal/prompt"
)

const (
	anthropicVersion = "bedrock-2023-05-31"

	// Bounded output: categorization returns a small JSON object while a
	// generated script needs room for a full PySpark program.
	categorizeMaxTokens = 1024
	scriptMaxTokens     = 4096

	temperature = 0.1
	topP        = 0.9

	// sampleLimit bounds prompt size; only the first rows are sent.
	sampleLimit = 5

	fallbackReasoning = "Fallback categorization based on available columns"
)

// Categorization is the structured result extracted from the model's
// free-text categorization response. Field names follow the JSON contract
// the prompt demands.
type Categorization struct {
	SuggestedCategories  []string       `json:"suggested_categories"`
	Reasoning            string         `json:"reasoning"`
	SegmentationCriteria map[string]any `json:"segmentation_criteria"`
}

// API is the subset of the Bedrock runtime client this package uses.
type API interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client invokes a single configured model.
type Client struct {
	runtime API
	modelID string
}

// NewClient builds a Client for the given model (or inference profile ARN).
func NewClient(runtime API, modelID string) *Client {
	return &Client{runtime: runtime, modelID: modelID}
}

// anthropic messages payload, see the Bedrock Anthropic messages API.
type invokePayload struct {
	AnthropicVersion string         `json:"anthropic_version"`
	Messages         []invokeMessage `json:"messages"`
	MaxTokens        int            `json:"max_tokens"`
	Temperature      float64        `json:"temperature"`
	TopP             float64        `json:"top_p"`
}

type invokeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type invokeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// invoke sends one prompt and returns the completion text.
func (c *Client) invoke(ctx context.Context, promptText string, maxTokens int) (string, error) {
	body, err := json.Marshal(invokePayload{
		AnthropicVersion: anthropicVersion,
		Messages:         []invokeMessage{{Role: "user", Content: promptText}},
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		TopP:             topP,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", apperr.Service(apperr.KindServer, "Inference backend error", err)
	}

	var resp invokeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("model response has no content")
	}
	return resp.Content[0].Text, nil
}

// CategorizeData asks the model for segmentation categories over the sample
// rows and schema. A response the model garbles falls back to a minimal
// schema-derived categorization; the fallback path never fails.
func (c *Client) CategorizeData(ctx context.Context, sampleRows []map[string]any, schema []string, fileName string) (*Categorization, error) {
	if len(sampleRows) > sampleLimit {
		sampleRows = sampleRows[:sampleLimit]
	}

	log.Info().
		Int("sampleRows", len(sampleRows)).
		Str("file", fileName).
		Msg("Requesting categorization from Bedrock")

	promptText, err := prompt.Categorization(sampleRows, schema)
	if err != nil {
		return nil, err
	}

	completion, err := c.invoke(ctx, promptText, categorizeMaxTokens)
	if err != nil {
		return nil, err
	}

	result, err := jsonutil.ParseObject[Categorization](completion)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse categorization response, using fallback")
		return fallbackCategorization(schema), nil
	}
	return &result, nil
}

// fallbackCategorization derives categories from the first schema columns.
func fallbackCategorization(schema []string) *Categorization {
	categories := schema
	if len(schema) > 3 {
		categories = schema[:3]
	}
	return &Categorization{
		SuggestedCategories:  categories,
		Reasoning:            fallbackReasoning,
		SegmentationCriteria: map[string]any{},
	}
}

// GenerateScript asks the model for a complete Glue segmentation script and
// strips the markdown code fence it usually wraps the code in. Anything else
// malformed in the response is returned as-is.
func (c *Client) GenerateScript(ctx context.Context, schema, categories []string, criteria map[string]any, sampleRows []map[string]any) (string, error) {
	if len(sampleRows) > sampleLimit {
		sampleRows = sampleRows[:sampleLimit]
	}

	promptText, err := prompt.ScriptGeneration(schema, categories, criteria, sampleRows)
	if err != nil {
		return "", err
	}

	log.Info().Msg("Requesting script generation from Bedrock")
	completion, err := c.invoke(ctx, promptText, scriptMaxTokens)
	if err != nil {
		return "", err
	}

	return cleanScript(completion), nil
}

// cleanScript removes a leading ```python marker and a trailing ``` marker.
func cleanScript(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```python")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
