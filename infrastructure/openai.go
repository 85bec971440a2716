package infrastructure

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"resume-analyzer/domain"
	"resume-analyzer/logger"
	"resume-analyzer/platform"
)

const defaultOpenAIModel = "gpt-4o-mini"

type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxLogLength int
	Retry        RetryPolicy
}

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client       *openai.Client
	model        string
	maxLogLength int
	retry        RetryPolicy
	logger       *zap.Logger
}

func NewOpenAIProvider(cfg OpenAIConfig, l *zap.Logger) (*OpenAIProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        model,
		maxLogLength: cfg.MaxLogLength,
		retry:        cfg.Retry,
		logger:       logger.WithProvider(l, "openai", model),
	}, nil
}

func (o *OpenAIProvider) Ping(ctx context.Context) error {
	if o.client == nil {
		return errors.New("openai client is not initialized")
	}
	return ctx.Err()
}

// Chat uses the configured model unless the request names a GPT model.
func (o *OpenAIProvider) Chat(ctx context.Context, messages []platform.ChatMessage, opts platform.ChatOptions) (*platform.AIResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.resolveModel(opts.Model),
		Temperature: opts.Temperature,
	}
	for _, msg := range messages {
		converted, err := toOpenAIMessage(msg)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, converted)
	}

	text, err := o.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return &platform.AIResponse{
		Message: platform.ChatMessage{
			Role:    platform.RoleAssistant,
			Content: platform.TextContent(text),
		},
		FinishReason: "stop",
		Model:        req.Model,
	}, nil
}

func (o *OpenAIProvider) ImageToText(ctx context.Context, image domain.File) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				imagePart(image),
				{Type: openai.ChatMessagePartTypeText, Text: imageToTextPrompt},
			},
		}},
	}
	return o.complete(ctx, req)
}

func (o *OpenAIProvider) resolveModel(requested string) string {
	requested = strings.TrimSpace(requested)
	if strings.HasPrefix(requested, "gpt") {
		return requested
	}
	return o.model
}

func (o *OpenAIProvider) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	var text string
	err := o.retry.Do(ctx, o.logger, func(ctx context.Context) error {
		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyResponse
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return ErrEmptyResponse
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	o.logger.Debug("model answered",
		zap.String(logger.FieldModel, req.Model),
		zap.String("response", logger.TruncateForLog(text, o.maxLogLength)),
	)
	return text, nil
}

func toOpenAIMessage(msg platform.ChatMessage) (openai.ChatCompletionMessage, error) {
	out := openai.ChatCompletionMessage{Role: msg.Role}
	if out.Role == "" {
		out.Role = openai.ChatMessageRoleUser
	}

	switch c := msg.Content.(type) {
	case nil:
	case platform.TextContent:
		out.Content = string(c)
	case platform.PartsContent:
		for _, p := range c {
			part, err := toOpenAIPart(p)
			if err != nil {
				return out, err
			}
			out.MultiContent = append(out.MultiContent, part)
		}
	}
	return out, nil
}

// toOpenAIPart sends images as data URIs and every other document as its
// extracted text.
func toOpenAIPart(p platform.ContentPart) (openai.ChatMessagePart, error) {
	switch p.Type {
	case platform.PartFile, platform.PartImage:
		if p.File == nil {
			return openai.ChatMessagePart{}, fmt.Errorf("file part %q has no content", p.Path)
		}
		if strings.HasPrefix(p.File.ContentType, "image/") {
			return imagePart(*p.File), nil
		}
		text, err := ExtractText(*p.File)
		if err != nil {
			return openai.ChatMessagePart{}, err
		}
		return openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: fmt.Sprintf("Document %s:\n%s", p.File.Name, text),
		}, nil
	default:
		return openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text}, nil
	}
}

func imagePart(image domain.File) openai.ChatMessagePart {
	uri := "data:" + imageMIME(image) + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
	return openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    uri,
			Detail: openai.ImageURLDetailAuto,
		},
	}
}
