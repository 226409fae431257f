package service

import (
	"emr-metadata-dashboard/internal/dashboard/domain/model"
)

// SelectMissing returns the ids of questions and answers with at least one
// checked field whose status in env is exactly Missing, whatever the field's
// value. An empty formName
// selects across all forms. Items without a usable external id are skipped.
func SelectMissing(records []model.MetadataRecord, formName, env string) model.Selection {
	var questions, answers []string
	qFields := QuestionFields(env)
	aFields := AnswerFields(env)

	for _, r := range records {
		if r.FormName == "" || (formName != "" && r.FormName != formName) {
			continue
		}
		if id := r.ID(); id != "" && hasMissing(env, qFields, r.Field) {
			questions = append(questions, id)
		}
		for _, a := range r.Answers {
			if id := a.ID(); id != "" && hasMissing(env, aFields, a.Field) {
				answers = append(answers, id)
			}
		}
	}
	return model.NewSelection(questions, answers)
}

func hasMissing(env string, fields []string, lookup func(string) *model.FieldStatus) bool {
	for _, name := range fields {
		f := lookup(name)
		if f.StatusIn(env) == model.StatusMissing {
			return true
		}
	}
	return false
}
