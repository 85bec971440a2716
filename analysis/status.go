package analysis

import (
	"strings"
	"unicode"
)

type Step string

const (
	StepUploading      Step = "uploading"
	StepConverting     Step = "converting"
	StepUploadingImage Step = "uploading_image"
	StepPreparing      Step = "preparing"
	StepAnalyzing      Step = "analyzing"
	StepParsing        Step = "parsing"
	StepFinalizing     Step = "finalizing"
	StepComplete       Step = "complete"
)

var progressText = map[Step]string{
	StepUploading:      "Uploading the file...",
	StepConverting:     "Converting to image...",
	StepUploadingImage: "Uploading the image...",
	StepPreparing:      "Preparing for analysis...",
	StepAnalyzing:      "Analyzing resume...",
	StepParsing:        "Parsing feedback...",
	StepFinalizing:     "Saving feedback...",
	StepComplete:       "Analysis complete, redirecting...",
}

// Status is one user-facing progress line.
type Status struct {
	Step     Step   `json:"step"`
	Text     string `json:"text"`
	Failed   bool   `json:"failed"`
	ResumeID string `json:"resume_id,omitempty"`
	// Preview is the display handle of the rendered first page, set once
	// conversion has succeeded.
	Preview string `json:"preview,omitempty"`
}

// StatusFunc receives every status transition of a pipeline run.
type StatusFunc func(Status)

func progress(step Step, resumeID string) Status {
	return Status{Step: step, Text: progressText[step], ResumeID: resumeID}
}

// failure renders "Error: Failed to ..." from the step sentinel.
func failure(step Step, sentinel error, resumeID string) Status {
	msg := sentinel.Error()
	if msg != "" {
		r := []rune(msg)
		r[0] = unicode.ToUpper(r[0])
		msg = string(r)
	}
	return Status{
		Step:     step,
		Text:     "Error: " + strings.TrimSpace(msg),
		Failed:   true,
		ResumeID: resumeID,
	}
}
