package analysis

import (
	"errors"
	"strings"

	"resume-analyzer/domain"
)

var errNoJSONObject = errors.New("no JSON object in response")

// ParseFeedback decodes a model answer into a validated Feedback.
func ParseFeedback(text string) (domain.Feedback, error) {
	cleaned := cleanJSONResponse(text)
	if !strings.HasPrefix(cleaned, "{") {
		return domain.Feedback{}, errNoJSONObject
	}

	return domain.DecodeFeedback([]byte(cleaned))
}

// cleanJSONResponse strips markdown fences and anything around the
// outermost JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end != -1 && end > start {
		content = content[start : end+1]
	}

	return strings.TrimSpace(content)
}
