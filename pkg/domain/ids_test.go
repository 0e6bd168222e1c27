package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseSessionID("")
		require.Error(t, err)
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseSessionID("not-a-uuid")
		require.Error(t, err)
	})

	t.Run("round trips a valid UUID", func(t *testing.T) {
		raw := uuid.NewString()
		parsed, err := ParseSessionID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, parsed.String())
	})
}

func TestIDsAreDistinctTypes(t *testing.T) {
	session := NewSessionID()
	submission := NewSubmissionID()

	assert.False(t, session.IsZero())
	assert.False(t, submission.IsZero())
	assert.True(t, SessionID{}.IsZero())
	assert.True(t, OperatorID{}.IsZero())
}

func TestIDJSONEncoding(t *testing.T) {
	session := NewSessionID()

	buf, err := json.Marshal(session)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+session.String()+`"`, string(buf))

	var decoded SessionID
	require.NoError(t, json.Unmarshal(buf, &decoded))
	assert.Equal(t, session, decoded)

	var submission SubmissionID
	require.Error(t, json.Unmarshal([]byte(`"garbage"`), &submission))
}
