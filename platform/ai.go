package platform

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"

	"go.uber.org/zap"

	"resume-analyzer/domain"
)

type AI struct {
	c *Client
}

// Chat resolves file parts through the blob store and forwards the
// conversation to the provider.
func (a *AI) Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) *AIResponse {
	if !a.c.begin(ctx, "ai") {
		return nil
	}
	defer a.c.endOp()

	resolved, err := a.resolveFiles(ctx, messages)
	if err != nil {
		a.c.fail(ctx, "ai", fmt.Errorf("failed to prepare chat: %w", err))
		return nil
	}

	resp, err := a.c.backends.AI.Chat(ctx, resolved, opts)
	if err != nil {
		a.c.fail(ctx, "ai", fmt.Errorf("failed to chat: %w", err))
		return nil
	}
	if resp == nil {
		a.c.fail(ctx, "ai", fmt.Errorf("failed to chat: empty response"))
		return nil
	}
	return resp
}

// Feedback asks the evaluation model to review the document stored at
// documentPath following instructions.
func (a *AI) Feedback(ctx context.Context, documentPath, instructions string) *AIResponse {
	messages := []ChatMessage{{
		Role: RoleUser,
		Content: PartsContent{
			FilePart(documentPath),
			TextPart(instructions),
		},
	}}
	a.c.logger.Debug("requesting feedback",
		zap.String("path", documentPath),
		zap.String("model", a.c.feedbackModel),
	)
	return a.Chat(ctx, messages, ChatOptions{Model: a.c.feedbackModel})
}

func (a *AI) ImageToText(ctx context.Context, image domain.File) (string, bool) {
	if !a.c.begin(ctx, "ai") {
		return "", false
	}
	defer a.c.endOp()

	text, err := a.c.backends.AI.ImageToText(ctx, image)
	if err != nil {
		a.c.fail(ctx, "ai", fmt.Errorf("failed to extract text from image: %w", err))
		return "", false
	}
	return text, true
}

func (a *AI) resolveFiles(ctx context.Context, messages []ChatMessage) ([]ChatMessage, error) {
	out := make([]ChatMessage, len(messages))
	for i, msg := range messages {
		out[i] = msg
		parts, ok := msg.Content.(PartsContent)
		if !ok {
			continue
		}

		resolved := make(PartsContent, len(parts))
		for j, part := range parts {
			resolved[j] = part
			if part.Type != PartFile || part.File != nil {
				continue
			}
			data, err := a.c.backends.FS.Read(ctx, part.Path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", part.Path, err)
			}
			resolved[j].File = &domain.File{
				Name:        path.Base(part.Path),
				ContentType: DetectContentType(part.Path, data),
				Data:        data,
			}
		}
		out[i].Content = resolved
	}
	return out, nil
}

// DetectContentType guesses a MIME type from the extension, then the bytes.
func DetectContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
