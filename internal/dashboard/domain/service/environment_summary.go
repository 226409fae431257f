package service

import (
	"sort"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
)

// Environments lists the environments a combined report covers, sorted.
func Environments(report *model.CombinedReport) []string {
	if report == nil {
		return []string{}
	}
	set := make(map[string]struct{}, len(report.Stats)+len(report.MergedMeta))
	for env := range report.Stats {
		set[env] = struct{}{}
	}
	for env := range report.MergedMeta {
		set[env] = struct{}{}
	}
	envs := make([]string, 0, len(set))
	for env := range set {
		if env != "" {
			envs = append(envs, env)
		}
	}
	sort.Strings(envs)
	return envs
}

// missingIn reports whether any field explicitly reports Missing for env.
// Fields without a status for env do not count against the item.
func missingIn(env string, fields ...*model.FieldStatus) bool {
	for _, f := range fields {
		if f.StatusIn(env) == model.StatusMissing {
			return true
		}
	}
	return false
}

func questionMissing(r model.MetadataRecord, env string) bool {
	if missingIn(env, r.ExternalID, r.Question, r.Translation, r.Datatype) {
		return true
	}
	return IsDHIS2(env) && missingIn(env, r.DHIS2DeUID)
}

func answerMissing(a model.AnswerRecord, env string) bool {
	if missingIn(env, a.ExternalID, a.Answer, a.Translation) {
		return true
	}
	return IsDHIS2(env) && missingIn(env, a.DHIS2OptionUID)
}

// CalculateEnvironmentSummary counts whole questions and answers per environment.
// An item is found unless one of its checked fields is explicitly Missing; a
// form counts once any of its items is found.
func CalculateEnvironmentSummary(records []model.MetadataRecord, environments []string) map[string]model.EnvironmentSummary {
	out := make(map[string]model.EnvironmentSummary, len(environments))
	if len(records) == 0 {
		return out
	}
	totalForms := len(FormNames(records))

	for _, env := range environments {
		var s model.EnvironmentSummary
		formsWithData := make(map[string]struct{})
		for _, r := range records {
			if r.FormName == "" {
				continue
			}
			s.TotalQuestions++
			if !questionMissing(r, env) {
				s.FoundQuestions++
				formsWithData[r.FormName] = struct{}{}
			}
			for _, a := range r.Answers {
				s.TotalAnswers++
				if !answerMissing(a, env) {
					s.FoundAnswers++
					formsWithData[r.FormName] = struct{}{}
				}
			}
		}
		s.QuestionCompletionPercentage = Percentage(s.FoundQuestions, s.TotalQuestions)
		s.AnswerCompletionPercentage = Percentage(s.FoundAnswers, s.TotalAnswers)
		s.TotalItems = s.TotalQuestions + s.TotalAnswers
		s.FoundItems = s.FoundQuestions + s.FoundAnswers
		s.CompletionPercentage = Percentage(s.FoundItems, s.TotalItems)
		s.TotalForms = totalForms
		s.FormsCounted = len(formsWithData)
		s.FormCompletionPercentage = Percentage(s.FormsCounted, s.TotalForms)
		out[env] = s
	}
	return out
}
