package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestNewFieldSet(t *testing.T) {
	for _, variant := range Variants {
		fields, err := NewFieldSet(variant)
		require.NoError(t, err)
		assert.Equal(t, variant, fields.Variant())
		assert.Equal(t, len(fields.Columns()), len(fields.Row()),
			"columns and row must stay aligned for %s", variant)
	}

	_, err := NewFieldSet("essay")
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeValidation))
}

func TestInfoFieldsValidate(t *testing.T) {
	fields := &InfoFields{FirstName: "Mara", Date: "2026-03-15"}
	require.NoError(t, fields.Validate())

	fields.Date = "15/03/2026"
	err := fields.Validate()
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeValidation))

	// Date is optional.
	fields.Date = ""
	require.NoError(t, fields.Validate())
}

func TestVibeFieldsJSONRoundTrip(t *testing.T) {
	fields := &VibeFields{
		HandwrittenStatement: "feeling great",
		StudentID:            "S-042",
	}
	fields.Answers[0] = intPtr(3)
	fields.Answers[13] = intPtr(1)

	data, err := json.Marshal(fields)
	require.NoError(t, err)

	// The wire shape is flat: q1..q14 keys, blanks as null.
	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, float64(3), flat["q1"])
	assert.Nil(t, flat["q2"])
	assert.Equal(t, float64(1), flat["q14"])
	assert.Equal(t, "feeling great", flat["handwrittenStatement"])

	var decoded VibeFields
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, fields.Answers, decoded.Answers)
	assert.Equal(t, fields.HandwrittenStatement, decoded.HandwrittenStatement)
	assert.Equal(t, fields.StudentID, decoded.StudentID)
}

func TestVibeFieldsValidate(t *testing.T) {
	fields := &VibeFields{}
	fields.Answers[4] = intPtr(-1)
	err := fields.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "q5")
}

func TestStatsFieldsJSONRoundTrip(t *testing.T) {
	fields := &StatsFields{StudentID: "S-100"}
	fields.Answers[0] = "42"
	fields.Answers[14] = "none"

	data, err := json.Marshal(fields)
	require.NoError(t, err)

	var decoded StatsFields
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *fields, decoded)
}

func TestDecodeFieldSet(t *testing.T) {
	fields, err := DecodeFieldSet(VariantInfo, []byte(`{"firstName":"Ira","studentId":"S-7"}`))
	require.NoError(t, err)
	info, ok := fields.(*InfoFields)
	require.True(t, ok)
	assert.Equal(t, "Ira", info.FirstName)
	assert.Equal(t, "S-7", info.StudentID)

	_, err = DecodeFieldSet(VariantInfo, []byte(`{"date":"not a date"}`))
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeValidation))

	_, err = DecodeFieldSet(VariantVibe, []byte(`{`))
	require.Error(t, err)
}

func TestFieldSetColumnsStartWithStudentID(t *testing.T) {
	for _, variant := range Variants {
		fields, err := NewFieldSet(variant)
		require.NoError(t, err)
		assert.Equal(t, "Student ID", fields.Columns()[0], "variant %s", variant)
	}
}
