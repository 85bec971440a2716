package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type TipType string

const (
	TipGood    TipType = "good"
	TipImprove TipType = "improve"
)

var ErrInvalidFeedback = errors.New("invalid feedback")

type ATSTip struct {
	Type TipType `json:"type"`
	Tip  string  `json:"tip"`
}

type DetailedTip struct {
	Type        TipType `json:"type"`
	Tip         string  `json:"tip"`
	Explanation string  `json:"explanation"`
}

type ATSCategory struct {
	Score int      `json:"score"`
	Tips  []ATSTip `json:"tips"`
}

type Category struct {
	Score int           `json:"score"`
	Tips  []DetailedTip `json:"tips"`
}

// Feedback is the structured evaluation of a resume against a role.
type Feedback struct {
	OverallScore int         `json:"overallScore"`
	ATS          ATSCategory `json:"ATS"`
	ToneAndStyle Category    `json:"toneAndStyle"`
	Content      Category    `json:"content"`
	Structure    Category    `json:"structure"`
	Skills       Category    `json:"skills"`
}

var categoryKeys = []string{"ATS", "toneAndStyle", "content", "structure", "skills"}

// DecodeFeedback decodes a feedback object. Every category and every score
// must be present; the result is normalized and validated.
func DecodeFeedback(data []byte) (Feedback, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Feedback{}, fmt.Errorf("decoding feedback: %w", err)
	}
	if !present(fields, "overallScore") {
		return Feedback{}, fmt.Errorf("%w: missing overallScore", ErrInvalidFeedback)
	}
	for _, key := range categoryKeys {
		if !present(fields, key) {
			return Feedback{}, fmt.Errorf("%w: missing %s", ErrInvalidFeedback, key)
		}
		var cat map[string]json.RawMessage
		if err := json.Unmarshal(fields[key], &cat); err != nil {
			return Feedback{}, fmt.Errorf("%w: %s is not an object", ErrInvalidFeedback, key)
		}
		if !present(cat, "score") {
			return Feedback{}, fmt.Errorf("%w: missing %s score", ErrInvalidFeedback, key)
		}
	}

	var f Feedback
	if err := json.Unmarshal(data, &f); err != nil {
		return Feedback{}, fmt.Errorf("decoding feedback: %w", err)
	}
	f.Normalize()
	if err := f.Validate(); err != nil {
		return Feedback{}, err
	}
	return f, nil
}

func present(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Normalize replaces absent tip lists with empty ones.
func (f *Feedback) Normalize() {
	if f.ATS.Tips == nil {
		f.ATS.Tips = []ATSTip{}
	}
	for _, c := range f.detailed() {
		if c.cat.Tips == nil {
			c.cat.Tips = []DetailedTip{}
		}
	}
}

// Validate checks score ranges and tip types.
func (f *Feedback) Validate() error {
	if err := checkScore("overallScore", f.OverallScore); err != nil {
		return err
	}
	if err := checkScore("ATS", f.ATS.Score); err != nil {
		return err
	}
	for i, tip := range f.ATS.Tips {
		if !tip.Type.Valid() {
			return fmt.Errorf("%w: ATS tip %d has type %q", ErrInvalidFeedback, i, tip.Type)
		}
	}
	for _, c := range f.detailed() {
		if err := checkScore(c.name, c.cat.Score); err != nil {
			return err
		}
		for i, tip := range c.cat.Tips {
			if !tip.Type.Valid() {
				return fmt.Errorf("%w: %s tip %d has type %q", ErrInvalidFeedback, c.name, i, tip.Type)
			}
		}
	}
	return nil
}

func (t TipType) Valid() bool {
	return t == TipGood || t == TipImprove
}

type namedCategory struct {
	name string
	cat  *Category
}

func (f *Feedback) detailed() []namedCategory {
	return []namedCategory{
		{"toneAndStyle", &f.ToneAndStyle},
		{"content", &f.Content},
		{"structure", &f.Structure},
		{"skills", &f.Skills},
	}
}

func checkScore(name string, score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("%w: %s score %d out of range [0,100]", ErrInvalidFeedback, name, score)
	}
	return nil
}
