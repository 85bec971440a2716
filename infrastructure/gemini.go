package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"resume-analyzer/domain"
	"resume-analyzer/logger"
	"resume-analyzer/platform"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Fallback models tried in order after the configured one.
var geminiFallbackModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-flash-latest",
}

const imageToTextPrompt = "Transcribe all text visible in this image. Return only the text, preserving line breaks."

// contentGenerator is the part of *genai.Models the provider uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiConfig struct {
	APIKey       string
	Model        string
	MaxLogLength int
	Retry        RetryPolicy
}

// GeminiProvider evaluates documents with the Gemini API.
type GeminiProvider struct {
	models       contentGenerator
	modelNames   []string
	maxLogLength int
	retry        RetryPolicy
	logger       *zap.Logger
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, l *zap.Logger) (*GeminiProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGeminiProvider(client.Models, cfg, l), nil
}

func newGeminiProvider(models contentGenerator, cfg GeminiConfig, l *zap.Logger) *GeminiProvider {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	names := []string{model}
	for _, m := range geminiFallbackModels {
		if m != model {
			names = append(names, m)
		}
	}

	return &GeminiProvider{
		models:       models,
		modelNames:   names,
		maxLogLength: cfg.MaxLogLength,
		retry:        cfg.Retry,
		logger:       logger.WithProvider(l, "gemini", model),
	}
}

func (g *GeminiProvider) Ping(ctx context.Context) error {
	if g.models == nil {
		return errors.New("gemini client is not initialized")
	}
	return ctx.Err()
}

// Chat sends the conversation to the first model that answers. Requested
// models outside the Gemini family fall back to the configured one.
func (g *GeminiProvider) Chat(ctx context.Context, messages []platform.ChatMessage, opts platform.ChatOptions) (*platform.AIResponse, error) {
	contents, err := toGeminiContents(messages)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(opts.Temperature)
	}

	text, model, err := g.generate(ctx, g.candidates(opts.Model), contents, cfg)
	if err != nil {
		return nil, err
	}

	return &platform.AIResponse{
		Message: platform.ChatMessage{
			Role:    platform.RoleAssistant,
			Content: platform.TextContent(text),
		},
		FinishReason: "stop",
		Model:        model,
	}, nil
}

func (g *GeminiProvider) ImageToText(ctx context.Context, image domain.File) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: imageMIME(image), Data: image.Data}},
			{Text: imageToTextPrompt},
		},
	}}
	text, _, err := g.generate(ctx, g.modelNames, contents, nil)
	return text, err
}

func (g *GeminiProvider) candidates(requested string) []string {
	requested = strings.TrimSpace(requested)
	if !strings.HasPrefix(requested, "gemini") {
		return g.modelNames
	}
	models := []string{requested}
	for _, name := range g.modelNames {
		if name != requested {
			models = append(models, name)
		}
	}
	return models
}

func (g *GeminiProvider) generate(ctx context.Context, models []string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, string, error) {
	var lastErr error
	for _, model := range models {
		var text string
		err := g.retry.Do(ctx, g.logger, func(ctx context.Context) error {
			resp, err := g.models.GenerateContent(ctx, model, contents, cfg)
			if err != nil {
				return fmt.Errorf("generate content: %w", err)
			}
			text = responseText(resp)
			if text == "" {
				return ErrEmptyResponse
			}
			return nil
		})
		if err == nil {
			g.logger.Debug("model answered",
				zap.String(logger.FieldModel, model),
				zap.String("response", logger.TruncateForLog(text, g.maxLogLength)),
			)
			return text, model, nil
		}
		if ctx.Err() != nil {
			return "", "", err
		}
		g.logger.Warn("model failed", zap.String(logger.FieldModel, model), zap.Error(err))
		lastErr = err
	}
	return "", "", fmt.Errorf("all models failed: %w", lastErr)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
		// first usable candidate only
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

func toGeminiContents(messages []platform.ChatMessage) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.RoleUser
		if msg.Role == platform.RoleAssistant {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		switch c := msg.Content.(type) {
		case nil:
			continue
		case platform.TextContent:
			parts = append(parts, &genai.Part{Text: string(c)})
		case platform.PartsContent:
			for _, p := range c {
				part, err := toGeminiPart(p)
				if err != nil {
					return nil, err
				}
				parts = append(parts, part)
			}
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, nil
}

// toGeminiPart inlines PDFs and images. Other documents are sent as text.
func toGeminiPart(p platform.ContentPart) (*genai.Part, error) {
	switch p.Type {
	case platform.PartFile, platform.PartImage:
		if p.File == nil {
			return nil, fmt.Errorf("file part %q has no content", p.Path)
		}
		mimeType := p.File.ContentType
		if mimeType == "application/pdf" || strings.HasPrefix(mimeType, "image/") {
			return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: p.File.Data}}, nil
		}
		text, err := ExtractText(*p.File)
		if err != nil {
			return nil, err
		}
		return &genai.Part{Text: text}, nil
	default:
		return &genai.Part{Text: p.Text}, nil
	}
}

func imageMIME(image domain.File) string {
	if strings.HasPrefix(image.ContentType, "image/") {
		return image.ContentType
	}
	return platform.DetectContentType(image.Name, image.Data)
}
