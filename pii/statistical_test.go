package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticalDetectorNames(t *testing.T) {
	d := NewStatisticalDetector()

	cands := findByType(d.Detect("Patient name: Anna Eriksson attended today"), EntityName)
	require.Len(t, cands, 1)
	assert.Equal(t, "Anna Eriksson", cands[0].Value)
	assert.Equal(t, SourceStatistical, cands[0].Source)
	// Context keyword lifts the confidence above the merge floor.
	assert.GreaterOrEqual(t, cands[0].Confidence, 0.5)
}

func TestStatisticalDetectorNameWithoutContextStaysWeak(t *testing.T) {
	d := NewStatisticalDetector()

	cands := findByType(d.Detect("Maple Grove is mentioned here"), EntityName)
	require.Len(t, cands, 1)
	assert.Less(t, cands[0].Confidence, 0.5)
}

func TestStatisticalDetectorOrganizations(t *testing.T) {
	d := NewStatisticalDetector()

	cands := findByType(d.Detect("Employed by Acme Widgets Inc. since 2019"), EntityOrg)
	require.NotEmpty(t, cands)
	assert.Contains(t, cands[0].Value, "Acme Widgets")
}

func TestStatisticalDetectorSkipsSentenceStarters(t *testing.T) {
	d := NewStatisticalDetector()

	cands := findByType(d.Detect("This Agreement shall commence"), EntityName)
	assert.Empty(t, cands)
}
