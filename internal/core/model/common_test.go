package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Provider
		ok       bool
	}{
		{name: "exact", input: "AWS", expected: ProviderAWS, ok: true},
		{name: "lower_case", input: "azure", expected: ProviderAzure, ok: true},
		{name: "padded", input: "  gcp ", expected: ProviderGCP, ok: true},
		{name: "unknown", input: "oracle", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ParseProvider(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestProviderSlug(t *testing.T) {
	assert.Equal(t, "aws", ProviderAWS.Slug())
	assert.Equal(t, "azure", ProviderAzure.Slug())
	assert.Equal(t, "gcp", ProviderGCP.Slug())
}

func TestFieldOrder(t *testing.T) {
	assert.Equal(t, []Field{
		FieldProvider, FieldService, FieldRegion, FieldAccountID, FieldStartDate, FieldEndDate,
	}, AllFields)
	assert.Equal(t, 100, DefaultBatchSize)
}
