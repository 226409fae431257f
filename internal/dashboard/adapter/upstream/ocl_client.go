package upstream

import (
	"context"
	"net/http"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/metrics"

	"github.com/spf13/cast"
)

// OCLClient submits selected concepts to an OCL source or collection.
type OCLClient struct {
	source     baseClient
	collection baseClient
	token      string
}

var _ repository.TerminologyService = (*OCLClient)(nil)

func NewOCLClient(sourceURL, collectionURL, token string, timeout time.Duration, m *metrics.Metrics) *OCLClient {
	return &OCLClient{
		source:     newBaseClient("ocl_source", sourceURL, timeout, m),
		collection: newBaseClient("ocl_collection", collectionURL, timeout, m),
		token:      token,
	}
}

func (c *OCLClient) Submit(ctx context.Context, target repository.TerminologyTarget, sub repository.TerminologySubmission) (*repository.SubmissionResult, error) {
	client := &c.source
	if target == repository.TargetCollection {
		client = &c.collection
	}
	if client.baseURL == "" {
		return nil, errors.NewUpstreamError("OCL " + string(target) + " endpoint is not configured")
	}

	body, err := jsonBody(sub)
	if err != nil {
		return nil, err
	}
	req, err := client.newRequest(ctx, http.MethodPost, "", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	var out map[string]interface{}
	if err := client.doJSON(req, &out); err != nil {
		return nil, err
	}
	res := &repository.SubmissionResult{
		Target:   target,
		Accepted: len(sub.Questions) + len(sub.Answers),
		Message:  cast.ToString(out["message"]),
	}
	if v, ok := out["accepted"]; ok {
		res.Accepted = cast.ToInt(v)
	}
	return res, nil
}
