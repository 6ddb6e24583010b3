package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSuggestion(t *testing.T) {
	before := testutil.ToFloat64(suggestionsServed.WithLabelValues(OutcomeDictionary))
	RecordSuggestion(OutcomeDictionary, 0.002)
	RecordSuggestion(OutcomeDictionary, 0.004)
	after := testutil.ToFloat64(suggestionsServed.WithLabelValues(OutcomeDictionary))
	assert.Equal(t, before+2, after)
}

func TestRecordCounters(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		read   func() float64
	}{
		{
			name:   "navigation abort",
			record: RecordNavigationAbort,
			read:   func() float64 { return testutil.ToFloat64(navigationAborts) },
		},
		{
			name:   "second level miss",
			record: func() { RecordSecondLevelLookup(ResultMiss) },
			read:   func() float64 { return testutil.ToFloat64(secondLevelLookups.WithLabelValues(ResultMiss)) },
		},
		{
			name:   "positive adaptation",
			record: func() { RecordAdaptation(AdaptPositive) },
			read:   func() float64 { return testutil.ToFloat64(adaptations.WithLabelValues(AdaptPositive)) },
		},
		{
			name:   "failed session",
			record: func() { RecordSessionTrained(StatusError) },
			read:   func() float64 { return testutil.ToFloat64(sessionsTrained.WithLabelValues(StatusError)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.read()
			tt.record()
			assert.Equal(t, before+1, tt.read())
		})
	}
}

func TestRecordCorpusRebuild(t *testing.T) {
	RecordCorpusRebuild(StatusSuccess, 42)
	assert.Equal(t, 42.0, testutil.ToFloat64(corpusDocuments))

	RecordCorpusRebuild(StatusError, 0)
	assert.Equal(t, 42.0, testutil.ToFloat64(corpusDocuments))
}
