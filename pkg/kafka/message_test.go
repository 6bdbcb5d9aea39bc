package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestParseRowMessage(t *testing.T) {
	jsonData := `{
		"source": "mcc-2024",
		"batch_id": "batch-7",
		"entity_kind": "institution",
		"row": {
			"institution_name": "GRANT MEDICAL COLLEGE",
			"state": "MAHARASHTRA",
			"closing_rank": 1200
		},
		"timestamp": "2025-01-15T10:30:00Z"
	}`

	msg, err := ParseRowMessage([]byte(jsonData))
	require.NoError(t, err)

	assert.Equal(t, "mcc-2024", msg.Source)
	assert.Equal(t, "batch-7", msg.BatchID)
	assert.Equal(t, models.EntityKindInstitution, msg.EntityKind)
	assert.Equal(t, "GRANT MEDICAL COLLEGE", msg.Row["institution_name"])
	assert.Equal(t, float64(1200), msg.Row["closing_rank"])
}

func TestParseRowMessageMissingRow(t *testing.T) {
	_, err := ParseRowMessage([]byte(`{"source": "mcc-2024"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no row payload")
}

func TestParseRowMessageInvalidJSON(t *testing.T) {
	_, err := ParseRowMessage([]byte(`{not json`))
	require.Error(t, err)
}

func TestMessageHeadersRoundTrip(t *testing.T) {
	headers := MessageHeaders{
		RequestID:   "req-123",
		Source:      "mcc-2024",
		TraceParent: "00-abc-def-01",
	}

	extracted := ExtractHeaders(headers.ToKafkaHeaders())
	assert.Equal(t, headers, extracted)
}

func TestMessageHeadersSkipsEmpty(t *testing.T) {
	headers := MessageHeaders{RequestID: "req-123"}
	kafkaHeaders := headers.ToKafkaHeaders()
	assert.Len(t, kafkaHeaders, 1)
	assert.Equal(t, "x-request-id", kafkaHeaders[0].Key)
}

func TestNewMatchOutcomeMessage(t *testing.T) {
	raw := models.RawReference{Name: "GRANT MEDICAL COLLEGE", State: "MAHARASHTRA"}

	t.Run("should carry the matched institution id", func(t *testing.T) {
		result := &models.MatchResult{
			MatchedInstitution: &models.CanonicalInstitution{ID: "inst-1", Name: "GRANT MEDICAL COLLEGE"},
			Stage:              models.MatchStageExact,
			Confidence:         1.0,
		}

		msg := NewMatchOutcomeMessage(raw, result, "job-1", "mcc-2024")
		require.NotNil(t, msg.InstitutionID)
		assert.Equal(t, "inst-1", *msg.InstitutionID)
		assert.Equal(t, models.MatchStageExact, msg.Stage)
		assert.False(t, msg.NeedsReview)
		assert.Equal(t, "job-1", msg.JobID)
		assert.False(t, msg.Timestamp.IsZero())
	})

	t.Run("should flag non-matches for review", func(t *testing.T) {
		msg := NewMatchOutcomeMessage(raw, models.NoMatch(), "", "mcc-2024")
		assert.Nil(t, msg.InstitutionID)
		assert.Equal(t, models.MatchStageNone, msg.Stage)
		assert.True(t, msg.NeedsReview)
	})
}
