package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RecordKeyPrefix namespaces analysis records in the metadata store.
const RecordKeyPrefix = "resume:"

// RecordKey returns the metadata key of the record with the given id.
func RecordKey(id string) string {
	return RecordKeyPrefix + id
}

// RecordPattern matches every analysis record key.
const RecordPattern = RecordKeyPrefix + "*"

// AnalysisRecord is the persisted unit of work of one analysis.
type AnalysisRecord struct {
	ID           string        `json:"id"`
	DocumentPath string        `json:"resumePath"`
	ImagePath    string        `json:"imagePath"`
	CompanyName  string        `json:"companyName,omitempty"`
	JobTitle     string        `json:"jobTitle,omitempty"`
	Feedback     FeedbackState `json:"feedback"`
}

// FeedbackState is either pending (no evaluation yet) or complete.
// Pending is stored as the empty string placeholder.
type FeedbackState struct {
	value *Feedback
}

func PendingFeedback() FeedbackState {
	return FeedbackState{}
}

func CompleteFeedback(f Feedback) FeedbackState {
	f.Normalize()
	return FeedbackState{value: &f}
}

func (s FeedbackState) IsPending() bool {
	return s.value == nil
}

// Get returns a copy of the feedback when complete.
func (s FeedbackState) Get() (Feedback, bool) {
	if s.value == nil {
		return Feedback{}, false
	}
	return *s.value, true
}

func (s FeedbackState) MarshalJSON() ([]byte, error) {
	if s.value == nil {
		return []byte(`""`), nil
	}
	return json.Marshal(s.value)
}

func (s *FeedbackState) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		s.value = nil
		return nil
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("feedback must be an object or empty placeholder, got %s", trimmed)
	}
	var f Feedback
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return err
	}
	f.Normalize()
	s.value = &f
	return nil
}

// Encode serializes the record for the metadata store.
func (r AnalysisRecord) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeRecord parses a stored record value.
func DecodeRecord(value string) (AnalysisRecord, error) {
	var r AnalysisRecord
	if err := json.Unmarshal([]byte(value), &r); err != nil {
		return AnalysisRecord{}, fmt.Errorf("decode analysis record: %w", err)
	}
	return r, nil
}
