// Package service holds the pure coverage computations behind the report views.
// Nothing here performs I/O; every function tolerates nil and empty input.
package service

import (
	"fmt"
	"math"
	"strings"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
)

const dhis2Marker = "DHIS2"

var (
	baseQuestionFields = []string{model.FieldExternalID, model.FieldQuestion, model.FieldTranslation, model.FieldDatatype}
	baseAnswerFields   = []string{model.FieldExternalID, model.FieldAnswer, model.FieldTranslation}
)

// IsDHIS2 reports whether env is an integration target that carries DHIS2 uids.
func IsDHIS2(env string) bool {
	return strings.Contains(env, dhis2Marker)
}

// QuestionFields lists the question fields checked for env.
func QuestionFields(env string) []string {
	if IsDHIS2(env) {
		return append(append([]string(nil), baseQuestionFields...), model.FieldDHIS2DeUID)
	}
	return baseQuestionFields
}

// AnswerFields lists the answer fields checked for env.
func AnswerFields(env string) []string {
	if IsDHIS2(env) {
		return append(append([]string(nil), baseAnswerFields...), model.FieldDHIS2OptionUID)
	}
	return baseAnswerFields
}

// Percentage is round(100*found/total), or 100 when there is nothing to count.
func Percentage(found, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(found) * 100 / float64(total)))
}

// FormNames returns the distinct non-empty form names in first appearance order.
func FormNames(records []model.MetadataRecord) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, r := range records {
		if r.FormName == "" {
			continue
		}
		if _, ok := seen[r.FormName]; ok {
			continue
		}
		seen[r.FormName] = struct{}{}
		names = append(names, r.FormName)
	}
	return names
}

// GroupByForm buckets records by form name. Records without a form are dropped.
func GroupByForm(records []model.MetadataRecord) map[string][]model.MetadataRecord {
	groups := make(map[string][]model.MetadataRecord)
	for _, r := range records {
		if r.FormName == "" {
			continue
		}
		groups[r.FormName] = append(groups[r.FormName], r)
	}
	return groups
}

type tally struct {
	total int
	found int
}

func (t *tally) count(f *model.FieldStatus, env string) {
	if !f.Present() {
		return
	}
	t.total++
	if f.StatusIn(env) == model.StatusFound {
		t.found++
	}
}

// StatsFor computes the coverage of one form group in one environment.
// The bucket is left empty; see CoverageAggregator for banded results.
func StatsFor(group []model.MetadataRecord, env string) model.EnvironmentStats {
	var t tally
	qFields := QuestionFields(env)
	aFields := AnswerFields(env)
	for _, r := range group {
		for _, name := range qFields {
			t.count(r.Field(name), env)
		}
		for _, a := range r.Answers {
			for _, name := range aFields {
				t.count(a.Field(name), env)
			}
		}
	}
	return newEnvironmentStats(t.found, t.total)
}

func newEnvironmentStats(found, total int) model.EnvironmentStats {
	pct := Percentage(found, total)
	mark := "❌"
	if pct == 100 {
		mark = "✅"
	}
	return model.EnvironmentStats{
		TotalFields:       total,
		FoundFields:       found,
		MissingFields:     total - found,
		Percentage:        pct,
		FoundPercentage:   fmt.Sprintf("%d%% %s", pct, mark),
		MissingPercentage: fmt.Sprintf("%d%% %s", 100-pct, mark),
	}
}

// CalculateFormStats computes per-form, per-environment coverage.
func CalculateFormStats(records []model.MetadataRecord, environments []string) map[string]model.FormStats {
	out := make(map[string]model.FormStats)
	if len(records) == 0 || len(environments) == 0 {
		return out
	}
	for form, group := range GroupByForm(records) {
		stats := make(model.FormStats, len(environments))
		for _, env := range environments {
			stats[env] = StatsFor(group, env)
		}
		out[form] = stats
	}
	return out
}

// CoverageAggregator applies a threshold policy on top of the raw statistics.
type CoverageAggregator struct {
	policy ThresholdPolicy
}

func NewCoverageAggregator(policy ThresholdPolicy) *CoverageAggregator {
	return &CoverageAggregator{policy: policy}
}

func (a *CoverageAggregator) Policy() ThresholdPolicy {
	return a.policy
}

// Coverage returns one row per form, in first appearance order, with buckets set.
func (a *CoverageAggregator) Coverage(records []model.MetadataRecord, environments []string) []model.FormCoverage {
	rows := make([]model.FormCoverage, 0)
	if len(environments) == 0 {
		return rows
	}
	groups := GroupByForm(records)
	for _, form := range FormNames(records) {
		group := groups[form]
		stats := make(model.FormStats, len(environments))
		for _, env := range environments {
			s := StatsFor(group, env)
			s.Bucket = a.policy.Bucket(s.Percentage)
			stats[env] = s
		}
		rows = append(rows, model.FormCoverage{FormName: form, Questions: len(group), Stats: stats})
	}
	return rows
}

// Summaries returns whole-report coverage per environment with buckets set.
func (a *CoverageAggregator) Summaries(records []model.MetadataRecord, environments []string) map[string]model.EnvironmentSummary {
	out := CalculateEnvironmentSummary(records, environments)
	for env, s := range out {
		s.Bucket = a.policy.Bucket(s.CompletionPercentage)
		out[env] = s
	}
	return out
}
