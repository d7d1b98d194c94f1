// Package ai drafts storefront page copy with Gemini.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/01moynul/a2z-storefront/internal/models"
)

// Drafter proposes new values for the given content fields of a page.
type Drafter interface {
	DraftPage(ctx context.Context, storeName, pageID string, fields models.PageContent) (models.PageContent, error)
}

// Service holds the Gemini client.
type Service struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

// NewService initializes the Gemini client.
func NewService(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*Service, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &Service{client: client, modelName: modelName, logger: logger}, nil
}

func (s *Service) Close() error { return s.client.Close() }

// DraftPage asks the model for a JSON object holding a replacement for every
// field in fields. Keys the model invents are dropped.
func (s *Service) DraftPage(ctx context.Context, storeName, pageID string, fields models.PageContent) (models.PageContent, error) {
	// 1. Configure the model for JSON output
	model := s.client.GenerativeModel(s.modelName)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(`
			You write short, friendly copy for small online stores.
			Reply with one JSON object whose keys are exactly the field names you are given.
			Values are plain strings without markdown.
		`)},
	}

	// 2. Send the prompt
	res, err := model.GenerateContent(ctx, genai.Text(buildPrompt(storeName, pageID, fields)))
	if err != nil {
		return nil, fmt.Errorf("error sending message: %w", err)
	}
	if res.UsageMetadata != nil {
		s.logger.Debug("content drafted",
			zap.String("page", pageID),
			zap.Int32("tokens", res.UsageMetadata.TotalTokenCount),
		)
	}

	// 3. Collect the text parts
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response")
	}
	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return parseDraft(sb.String(), fields)
}

func buildPrompt(storeName, pageID string, fields models.PageContent) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Store: %s\nPage: %s\nRewrite these fields:\n", storeName, pageID)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s (current: %q)\n", k, fields[k])
	}
	return b.String()
}

// parseDraft reads the model's JSON and keeps only the requested keys.
// Models sometimes wrap JSON in a ```json fence.
func parseDraft(text string, fields models.PageContent) (models.PageContent, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var raw map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, fmt.Errorf("draft is not valid JSON: %w", err)
	}
	out := models.PageContent{}
	for k := range fields {
		if v, ok := raw[k].(string); ok && strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out, nil
}
