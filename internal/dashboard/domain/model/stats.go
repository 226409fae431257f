package model

// Bucket is the display band of a completion percentage.
type Bucket string

const (
	BucketGood Bucket = "good"
	BucketWarn Bucket = "warn"
	BucketBad  Bucket = "bad"
)

// EnvironmentStats is the coverage of one form in one environment.
// FoundFields + MissingFields always equals TotalFields.
type EnvironmentStats struct {
	TotalFields       int    `json:"totalFields"`
	FoundFields       int    `json:"foundFields"`
	MissingFields     int    `json:"missingFields"`
	Percentage        int    `json:"percentage"`
	FoundPercentage   string `json:"foundPercentage"`
	MissingPercentage string `json:"missingPercentage"`
	Bucket            Bucket `json:"bucket,omitempty"`
}

// FormStats maps environment name to stats for a single form.
type FormStats map[string]EnvironmentStats

// FormCoverage is one row of the report table.
type FormCoverage struct {
	FormName  string    `json:"formName"`
	Questions int       `json:"questions"`
	Stats     FormStats `json:"stats"`
}

// EnvironmentSummary is the whole-report coverage of one environment.
type EnvironmentSummary struct {
	TotalQuestions               int    `json:"totalQuestions"`
	FoundQuestions               int    `json:"foundQuestions"`
	QuestionCompletionPercentage int    `json:"questionCompletionPercentage"`
	TotalAnswers                 int    `json:"totalAnswers"`
	FoundAnswers                 int    `json:"foundAnswers"`
	AnswerCompletionPercentage   int    `json:"answerCompletionPercentage"`
	TotalItems                   int    `json:"totalItems"`
	FoundItems                   int    `json:"foundItems"`
	CompletionPercentage         int    `json:"completionPercentage"`
	TotalForms                   int    `json:"totalForms"`
	FormsCounted                 int    `json:"formsCounted"`
	FormCompletionPercentage     int    `json:"formCompletionPercentage"`
	Bucket                       Bucket `json:"bucket,omitempty"`
}

// EntityStatus summarizes one concept, attribute or identifier across environments.
type EntityStatus struct {
	Total int `json:"total"`
	// Missing counts the environments that did not report the entity as found.
	Missing   int      `json:"missing"`
	MissingIn []string `json:"missingIds"`
	FormName  string   `json:"formName"`
}

// EntitySummary is the entity view over a set of environment reports.
type EntitySummary struct {
	ReportsByEnvironment map[string][]EnvironmentReport `json:"reportsByType"`
	Forms                map[string]EntityStatus        `json:"forms"`
	Attributes           map[string]EntityStatus        `json:"attributes"`
	Identifiers          map[string]EntityStatus        `json:"identifiers"`
}
