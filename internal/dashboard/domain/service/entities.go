package service

import (
	"emr-metadata-dashboard/internal/dashboard/domain/model"
)

const (
	unknownEnvironment = "Unknown"
	unknownForm        = "Unknown Form"
	systemIdentifier   = "System Identifier"
)

// SummarizeEntities folds environment reports into a per-entity view.
// Each report adds one to an entity's Missing count when the entity is not
// Found in that report's environment.
func SummarizeEntities(reports []model.EnvironmentReport) model.EntitySummary {
	summary := model.EntitySummary{
		ReportsByEnvironment: make(map[string][]model.EnvironmentReport),
		Forms:                make(map[string]model.EntityStatus),
		Attributes:           make(map[string]model.EntityStatus),
		Identifiers:          make(map[string]model.EntityStatus),
	}

	for _, r := range reports {
		env := r.Environment
		if env == "" {
			env = unknownEnvironment
		}
		summary.ReportsByEnvironment[env] = append(summary.ReportsByEnvironment[env], r)

		for uuid, entry := range r.Concepts {
			s, ok := summary.Forms[uuid]
			if !ok {
				s = model.EntityStatus{Total: len(entry.Forms), FormName: unknownForm, MissingIn: []string{}}
				if len(entry.Forms) > 0 {
					s.FormName = entry.Forms[0]
				}
			}
			summary.Forms[uuid] = markMissing(s, entry, env)
		}
		for uuid, entry := range r.Attributes {
			s, ok := summary.Attributes[uuid]
			if !ok {
				s = model.EntityStatus{Total: 1, FormName: orDefault(entry.Form, unknownForm), MissingIn: []string{}}
			}
			summary.Attributes[uuid] = markMissing(s, entry, env)
		}
		for uuid, entry := range r.Identifiers {
			s, ok := summary.Identifiers[uuid]
			if !ok {
				s = model.EntityStatus{Total: 1, FormName: orDefault(entry.Form, systemIdentifier), MissingIn: []string{}}
			}
			summary.Identifiers[uuid] = markMissing(s, entry, env)
		}
	}
	return summary
}

func markMissing(s model.EntityStatus, entry model.EntityEntry, env string) model.EntityStatus {
	if entry.Statuses[env] != model.StatusFound {
		s.Missing++
		s.MissingIn = append(s.MissingIn, env)
	}
	return s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
