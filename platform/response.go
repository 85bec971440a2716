package platform

import (
	"bytes"
	"encoding/json"
	"fmt"

	"resume-analyzer/domain"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"

	PartText  = "text"
	PartFile  = "file"
	PartImage = "image"
)

// ContentPart is one element of a multi-part message. File parts name a
// storage path; the facade fills File before the provider sees the part.
type ContentPart struct {
	Type string       `json:"type"`
	Text string       `json:"text,omitempty"`
	Path string       `json:"path,omitempty"`
	File *domain.File `json:"-"`
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

func FilePart(path string) ContentPart {
	return ContentPart{Type: PartFile, Path: path}
}

// MessageContent is either TextContent or PartsContent.
type MessageContent interface {
	Text() string
	isMessageContent()
}

type TextContent string

func (t TextContent) Text() string   { return string(t) }
func (TextContent) isMessageContent() {}

type PartsContent []ContentPart

// Text returns the text of the first part.
func (p PartsContent) Text() string {
	if len(p) == 0 {
		return ""
	}
	return p[0].Text
}

func (PartsContent) isMessageContent() {}

type ChatMessage struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = raw.Role
	m.Content = nil

	content := bytes.TrimSpace(raw.Content)
	if len(content) == 0 || bytes.Equal(content, []byte("null")) {
		return nil
	}

	switch content[0] {
	case '"':
		var s string
		if err := json.Unmarshal(content, &s); err != nil {
			return err
		}
		m.Content = TextContent(s)
	case '[':
		var parts []ContentPart
		if err := json.Unmarshal(content, &parts); err != nil {
			return err
		}
		m.Content = PartsContent(parts)
	default:
		return fmt.Errorf("unsupported message content %s", content)
	}
	return nil
}

type ChatOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

type AIResponse struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Model        string      `json:"model,omitempty"`
}

// Text returns the message text whatever shape the content has.
func (r *AIResponse) Text() string {
	if r == nil || r.Message.Content == nil {
		return ""
	}
	return r.Message.Content.Text()
}
