package service

import (
	"encoding/json"
	"strings"

	"emr-metadata-dashboard/internal/dashboard/domain/model"

	"github.com/spf13/cast"
)

// ParseCombinedReport decodes report content leniently. Sections that are
// absent or malformed are left empty and malformed records are skipped, so
// the result is always usable by the aggregator.
func ParseCombinedReport(raw []byte) *model.CombinedReport {
	report := &model.CombinedReport{
		MergedReport:       []model.MetadataRecord{},
		Stats:              map[string]model.ReportEnvironmentStats{},
		MergedMeta:         map[string]string{},
		MissingExternalIDs: map[string][]string{},
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return report
	}
	// report blobs sometimes wrap the payload in a "content" envelope
	if inner, ok := top["content"]; ok && top["mergedReport"] == nil {
		var nested map[string]json.RawMessage
		if json.Unmarshal(inner, &nested) == nil {
			top = nested
		}
	}

	var items []json.RawMessage
	if json.Unmarshal(top["mergedReport"], &items) == nil {
		for _, item := range items {
			var rec model.MetadataRecord
			if json.Unmarshal(item, &rec) == nil {
				report.MergedReport = append(report.MergedReport, rec)
			}
		}
	}

	var stats map[string]map[string]interface{}
	if json.Unmarshal(top["stats"], &stats) == nil {
		for env, s := range stats {
			report.Stats[env] = model.ReportEnvironmentStats{
				TotalForms:         cast.ToInt(s["totalForms"]),
				FormsCounted:       cast.ToInt(s["formsCounted"]),
				MissingExternalIDs: countOrLen(s["missingExternalIds"]),
			}
		}
	}

	var meta map[string]interface{}
	if json.Unmarshal(top["mergedMeta"], &meta) == nil {
		for env, v := range meta {
			report.MergedMeta[env] = cast.ToString(v)
		}
	}

	var missing map[string]interface{}
	if json.Unmarshal(top["missingExternalIds"], &missing) == nil {
		for env, v := range missing {
			ids := make([]string, 0)
			for _, id := range cast.ToStringSlice(v) {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
			report.MissingExternalIDs[env] = ids
		}
	}
	return report
}

// countOrLen accepts either a count or the list of ids itself.
func countOrLen(v interface{}) int {
	if list, ok := v.([]interface{}); ok {
		return len(list)
	}
	return cast.ToInt(v)
}

// ParseEnvironmentReport decodes an environment report, returning nil when
// the content is not an object.
func ParseEnvironmentReport(raw []byte) *model.EnvironmentReport {
	var r model.EnvironmentReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}
	r.Environment = strings.TrimSpace(r.Environment)
	return &r
}
