package service

import (
	"testing"

	"emr-metadata-dashboard/internal/dashboard/domain/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestEnvironments_UnionSorted(t *testing.T) {
	report := &model.CombinedReport{
		Stats:      map[string]model.ReportEnvironmentStats{envUAT: {}, envOCL: {}},
		MergedMeta: map[string]string{envDHIS2: "2024-01-01", envOCL: "2024-01-02"},
	}
	assert.Equal(t, []string{envDHIS2, envOCL, envUAT}, Environments(report))
	assert.Empty(t, Environments(nil))
}

func TestCalculateEnvironmentSummary(t *testing.T) {
	got := CalculateEnvironmentSummary(fixtureRecords(), []string{envOCL, envUAT, envDHIS2})

	want := map[string]model.EnvironmentSummary{
		// q-weight has translation Missing in OCL, q-visit externalId Missing
		envOCL: {
			TotalQuestions: 3, FoundQuestions: 1, QuestionCompletionPercentage: 33,
			TotalAnswers: 1, FoundAnswers: 1, AnswerCompletionPercentage: 100,
			TotalItems: 4, FoundItems: 2, CompletionPercentage: 50,
			TotalForms: 2, FormsCounted: 1, FormCompletionPercentage: 50,
		},
		envUAT: {
			TotalQuestions: 3, FoundQuestions: 1, QuestionCompletionPercentage: 33,
			TotalAnswers: 1, FoundAnswers: 0, AnswerCompletionPercentage: 0,
			TotalItems: 4, FoundItems: 1, CompletionPercentage: 25,
			TotalForms: 2, FormsCounted: 1, FormCompletionPercentage: 50,
		},
		// only q-weight's dhis2DeUid is Missing
		envDHIS2: {
			TotalQuestions: 3, FoundQuestions: 2, QuestionCompletionPercentage: 67,
			TotalAnswers: 1, FoundAnswers: 1, AnswerCompletionPercentage: 100,
			TotalItems: 4, FoundItems: 3, CompletionPercentage: 75,
			TotalForms: 2, FormsCounted: 2, FormCompletionPercentage: 100,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CalculateEnvironmentSummary mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateEnvironmentSummary_Empty(t *testing.T) {
	assert.Empty(t, CalculateEnvironmentSummary(nil, []string{envOCL}))
}

func TestCoverageAggregator_SummariesBucket(t *testing.T) {
	agg := NewCoverageAggregator(ThresholdPolicy{Good: 75, Warn: 50})
	got := agg.Summaries(fixtureRecords(), []string{envOCL, envUAT, envDHIS2})
	assert.Equal(t, model.BucketWarn, got[envOCL].Bucket)
	assert.Equal(t, model.BucketBad, got[envUAT].Bucket)
	assert.Equal(t, model.BucketGood, got[envDHIS2].Bucket)
}
