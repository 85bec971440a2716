package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		fb := sampleFeedback()
		require.NoError(t, fb.Validate())
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		fb := sampleFeedback()
		fb.OverallScore = 100
		fb.Skills.Score = 0
		require.NoError(t, fb.Validate())
	})

	t.Run("overall out of range", func(t *testing.T) {
		fb := sampleFeedback()
		fb.OverallScore = 101
		err := fb.Validate()
		require.ErrorIs(t, err, ErrInvalidFeedback)
		assert.Contains(t, err.Error(), "overallScore")
	})

	t.Run("category out of range", func(t *testing.T) {
		fb := sampleFeedback()
		fb.Structure.Score = -1
		err := fb.Validate()
		require.ErrorIs(t, err, ErrInvalidFeedback)
		assert.Contains(t, err.Error(), "structure")
	})

	t.Run("unknown ats tip type", func(t *testing.T) {
		fb := sampleFeedback()
		fb.ATS.Tips[0].Type = "great"
		require.ErrorIs(t, fb.Validate(), ErrInvalidFeedback)
	})

	t.Run("unknown detailed tip type", func(t *testing.T) {
		fb := sampleFeedback()
		fb.ToneAndStyle.Tips[0].Type = ""
		require.ErrorIs(t, fb.Validate(), ErrInvalidFeedback)
	})
}

func TestFileSize(t *testing.T) {
	assert.Equal(t, int64(3), File{Data: []byte("abc")}.Size())
	assert.Equal(t, int64(0), File{}.Size())
}
