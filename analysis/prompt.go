package analysis

import (
	_ "embed"
	"strings"
)

//go:embed prompt.md
var instructionsTemplate string

const unspecified = "(not specified)"

// BuildInstructions fills the evaluation prompt with the job context.
func BuildInstructions(jobTitle, jobDescription string) string {
	jobTitle = strings.TrimSpace(jobTitle)
	if jobTitle == "" {
		jobTitle = unspecified
	}
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		jobDescription = unspecified
	}

	return strings.NewReplacer(
		"{{jobTitle}}", jobTitle,
		"{{jobDescription}}", jobDescription,
	).Replace(instructionsTemplate)
}
