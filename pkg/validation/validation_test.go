package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidator(t *testing.T) {
	cv := NewConfigValidator("load")
	cv.Required("manifest", "").
		Positive("batch_size", 0).
		RangeInt("parallelism", 9, 1, 8).
		OneOf("driver", "mysql", []string{"embedded", "neo4j"})

	require.True(t, cv.HasErrors())
	assert.Len(t, cv.Errors(), 4)

	err := cv.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load validation failed with 4 errors")
	assert.Contains(t, err.Error(), "load.manifest: required field is empty")
}

func TestConfigValidator_When(t *testing.T) {
	cv := NewConfigValidator("store")
	cv.When(false, func(cv *ConfigValidator) { cv.Required("uri", "") })
	assert.NoError(t, cv.Validate())

	cv.When(true, func(cv *ConfigValidator) { cv.Required("uri", "") })
	assert.EqualError(t, cv.Validate(), "store.uri: required field is empty")
}

func TestDefaultOr(t *testing.T) {
	assert.Equal(t, 1000, DefaultOr(0, 1000))
	assert.Equal(t, 5, DefaultOr(5, 1000))
	assert.Equal(t, "embedded", DefaultOr("", "embedded"))
}

func TestValidateIdentifier(t *testing.T) {
	for _, ok := range []string{"Disease", "HAS_SYMPTOM", "_x1"} {
		assert.NoError(t, ValidateIdentifier("label", ok), ok)
	}
	for _, bad := range []string{"", "1Disease", "Has Symptom", "a-b", "x`) DETACH DELETE n //", strings.Repeat("a", 65)} {
		assert.Error(t, ValidateIdentifier("label", bad), bad)
	}
}

type sample struct {
	Label string `validate:"required,identifier"`
	File  string `validate:"required"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(&sample{Label: "Disease", File: "diseases.csv"}))

	err := Struct(&sample{Label: "bad label", File: "x.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample.Label")
	assert.Contains(t, err.Error(), "not a valid identifier")

	err = Struct(&sample{Label: "Disease"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample.File: field is required")
}
