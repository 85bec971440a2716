package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFeedback() Feedback {
	return Feedback{
		OverallScore: 78,
		ATS: ATSCategory{Score: 80, Tips: []ATSTip{
			{Type: TipGood, Tip: "Standard section headings"},
			{Type: TipImprove, Tip: "Add keywords from the posting"},
		}},
		ToneAndStyle: Category{Score: 70, Tips: []DetailedTip{{Type: TipImprove, Tip: "Active voice", Explanation: "Lead bullets with verbs."}}},
		Content:      Category{Score: 75, Tips: []DetailedTip{}},
		Structure:    Category{Score: 90, Tips: []DetailedTip{{Type: TipGood, Tip: "Clear layout", Explanation: "Easy to scan."}}},
		Skills:       Category{Score: 65, Tips: []DetailedTip{}},
	}
}

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "resume:abc", RecordKey("abc"))
	assert.Equal(t, "resume:*", RecordPattern)
}

func TestPendingRecordEncodesPlaceholder(t *testing.T) {
	rec := AnalysisRecord{
		ID:           "id-1",
		DocumentPath: "/uploads/id-1/cv.pdf",
		ImagePath:    "/uploads/id-2/cv.png",
		CompanyName:  "Acme",
		JobTitle:     "Engineer",
		Feedback:     PendingFeedback(),
	}

	value, err := rec.Encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(value), &raw))
	assert.Equal(t, "", raw["feedback"])
	assert.Equal(t, "/uploads/id-1/cv.pdf", raw["resumePath"])
	assert.NotContains(t, raw, "jobDescription")
}

func TestRecordRoundTrip(t *testing.T) {
	for _, state := range []FeedbackState{PendingFeedback(), CompleteFeedback(sampleFeedback())} {
		rec := AnalysisRecord{
			ID:           "id-1",
			DocumentPath: "/uploads/a/cv.pdf",
			ImagePath:    "/uploads/b/cv.png",
			CompanyName:  "Acme",
			JobTitle:     "Engineer",
			Feedback:     state,
		}

		value, err := rec.Encode()
		require.NoError(t, err)

		decoded, err := DecodeRecord(value)
		require.NoError(t, err)
		assert.Equal(t, rec, decoded)
	}
}

func TestFeedbackStateDecoding(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		pending bool
		wantErr bool
	}{
		{name: "empty placeholder", input: `{"feedback":""}`, pending: true},
		{name: "null", input: `{"feedback":null}`, pending: true},
		{name: "missing", input: `{}`, pending: true},
		{name: "object", input: `{"feedback":{"overallScore":50}}`, pending: false},
		{name: "number", input: `{"feedback":5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec AnalysisRecord
			err := json.Unmarshal([]byte(tt.input), &rec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pending, rec.Feedback.IsPending())
		})
	}
}

func TestCompleteFeedbackNormalizesTips(t *testing.T) {
	state := CompleteFeedback(Feedback{OverallScore: 10})
	fb, ok := state.Get()
	require.True(t, ok)
	assert.NotNil(t, fb.ATS.Tips)
	assert.NotNil(t, fb.ToneAndStyle.Tips)
	assert.NotNil(t, fb.Content.Tips)
	assert.NotNil(t, fb.Structure.Tips)
	assert.NotNil(t, fb.Skills.Tips)
}
