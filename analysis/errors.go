package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrUploadFailed       = errors.New("failed to upload file")
	ErrConversionFailed   = errors.New("failed to convert PDF to image")
	ErrImageUploadFailed  = errors.New("failed to upload image")
	ErrSaveFailed         = errors.New("failed to save analysis")
	ErrAnalysisFailed     = errors.New("failed to analyze resume")
	ErrMalformedFeedback  = errors.New("received a malformed analysis")
	ErrFeedbackSaveFailed = errors.New("failed to save feedback")
)

// StepError reports the pipeline step that halted an analysis.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
