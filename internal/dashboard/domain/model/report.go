package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/spf13/cast"
)

// Status is the presence of a field in one environment.
type Status string

const (
	StatusFound   Status = "Found"
	StatusMissing Status = "Missing"
)

// SentinelNA marks a field that does not apply to a record.
const SentinelNA = "NA"

// Field names as they appear in merged reports.
const (
	FieldExternalID     = "externalId"
	FieldQuestion       = "question"
	FieldTranslation    = "translation"
	FieldDatatype       = "datatype"
	FieldDHIS2DeUID     = "dhis2DeUid"
	FieldAnswer         = "answer"
	FieldDHIS2OptionUID = "dhis2OptionUid"
)

// FieldStatus is a canonical value plus its status per environment.
//
// On the wire it is a flat object: {"value": "Weight", "OCL-Source": "Found"}.
type FieldStatus struct {
	Value    string
	Statuses map[string]Status
}

// Present reports whether the canonical value counts toward totals.
func (f *FieldStatus) Present() bool {
	if f == nil {
		return false
	}
	v := strings.TrimSpace(f.Value)
	return v != "" && v != SentinelNA
}

// StatusIn returns the status for env, empty when the environment never reported the field.
func (f *FieldStatus) StatusIn(env string) Status {
	if f == nil {
		return ""
	}
	return f.Statuses[env]
}

func (f *FieldStatus) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		// bare scalars carry a value but no environment statuses
		var scalar interface{}
		if err := json.Unmarshal(trimmed, &scalar); err != nil {
			return err
		}
		f.Value = cast.ToString(scalar)
		return nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	f.Statuses = make(map[string]Status, len(raw))
	for key, val := range raw {
		if key == "value" {
			f.Value = cast.ToString(val)
			continue
		}
		if s, ok := val.(string); ok {
			f.Statuses[key] = Status(s)
		}
	}
	return nil
}

func (f FieldStatus) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(f.Statuses)+1)
	for env, s := range f.Statuses {
		out[env] = s
	}
	out["value"] = f.Value
	return json.Marshal(out)
}

// AnswerRecord is a coded answer option nested under a question.
type AnswerRecord struct {
	ExternalID     *FieldStatus `json:"externalId,omitempty"`
	Answer         *FieldStatus `json:"answer,omitempty"`
	Translation    *FieldStatus `json:"translation,omitempty"`
	DHIS2OptionUID *FieldStatus `json:"dhis2OptionUid,omitempty"`
}

// Field looks a field up by its wire name.
func (a AnswerRecord) Field(name string) *FieldStatus {
	switch name {
	case FieldExternalID:
		return a.ExternalID
	case FieldAnswer:
		return a.Answer
	case FieldTranslation:
		return a.Translation
	case FieldDHIS2OptionUID:
		return a.DHIS2OptionUID
	}
	return nil
}

// MetadataRecord is one question (or attribute) of a form across environments.
type MetadataRecord struct {
	FormName      string         `json:"formName"`
	ExternalID    *FieldStatus   `json:"externalId,omitempty"`
	Question      *FieldStatus   `json:"question,omitempty"`
	Translation   *FieldStatus   `json:"translation,omitempty"`
	Datatype      *FieldStatus   `json:"datatype,omitempty"`
	DHIS2DeUID    *FieldStatus   `json:"dhis2DeUid,omitempty"`
	OptionSetName string         `json:"optionSetName,omitempty"`
	Answers       []AnswerRecord `json:"answers,omitempty"`
}

func (r *MetadataRecord) UnmarshalJSON(data []byte) error {
	type plain MetadataRecord
	var aux struct {
		plain
		FormName      interface{}  `json:"formName"`
		OptionSetName interface{}  `json:"optionSetName"`
		Label         *FieldStatus `json:"label"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = MetadataRecord(aux.plain)
	r.FormName = strings.TrimSpace(cast.ToString(aux.FormName))
	r.OptionSetName = cast.ToString(aux.OptionSetName)
	if r.Question == nil {
		r.Question = aux.Label
	}
	return nil
}

// Field looks a field up by its wire name.
func (r MetadataRecord) Field(name string) *FieldStatus {
	switch name {
	case FieldExternalID:
		return r.ExternalID
	case FieldQuestion:
		return r.Question
	case FieldTranslation:
		return r.Translation
	case FieldDatatype:
		return r.Datatype
	case FieldDHIS2DeUID:
		return r.DHIS2DeUID
	}
	return nil
}

// ID is the external id value, used as the selection key.
func (r MetadataRecord) ID() string {
	if !r.ExternalID.Present() {
		return ""
	}
	return strings.TrimSpace(r.ExternalID.Value)
}

// ID is the external id value of the answer concept.
func (a AnswerRecord) ID() string {
	if !a.ExternalID.Present() {
		return ""
	}
	return strings.TrimSpace(a.ExternalID.Value)
}

// ReportEnvironmentStats is the per-environment header of a combined report.
type ReportEnvironmentStats struct {
	TotalForms         int `json:"totalForms"`
	FormsCounted       int `json:"formsCounted"`
	MissingExternalIDs int `json:"missingExternalIds"`
}

// CombinedReport is the content of a "report" metadata blob.
type CombinedReport struct {
	MergedReport       []MetadataRecord                  `json:"mergedReport"`
	Stats              map[string]ReportEnvironmentStats `json:"stats"`
	MergedMeta         map[string]string                 `json:"mergedMeta"`
	MissingExternalIDs map[string][]string               `json:"missingExternalIds"`
}

// IsEmpty reports whether there is nothing to aggregate.
func (r *CombinedReport) IsEmpty() bool {
	return r == nil || len(r.MergedReport) == 0
}

// EntityEntry is one concept, attribute or identifier in an environment report.
type EntityEntry struct {
	Forms    []string          `json:"forms,omitempty"`
	Form     string            `json:"form,omitempty"`
	Statuses map[string]Status `json:"statuses,omitempty"`
}

// EnvironmentReport is the per-environment verification output.
type EnvironmentReport struct {
	Environment string                 `json:"environment"`
	ProjectID   string                 `json:"projectID,omitempty"`
	SyncedAt    string                 `json:"syncedAt,omitempty"`
	Concepts    map[string]EntityEntry `json:"concepts,omitempty"`
	Attributes  map[string]EntityEntry `json:"attributes,omitempty"`
	Identifiers map[string]EntityEntry `json:"identifiers,omitempty"`
}
