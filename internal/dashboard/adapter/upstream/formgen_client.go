package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/metrics"

	"github.com/spf13/cast"
)

// FormGeneratorClient talks to the form generator API.
type FormGeneratorClient struct {
	baseClient
	healthURL string
}

var _ repository.FormGenerator = (*FormGeneratorClient)(nil)

// NewFormGeneratorClient builds a client for baseURL. healthURL is the base of
// the /health probe and falls back to baseURL when empty.
func NewFormGeneratorClient(baseURL, healthURL string, timeout time.Duration, m *metrics.Metrics) *FormGeneratorClient {
	if healthURL == "" {
		healthURL = baseURL
	}
	return &FormGeneratorClient{
		baseClient: newBaseClient("form_generator", baseURL, timeout, m),
		healthURL:  strings.TrimRight(healthURL, "/"),
	}
}

func (c *FormGeneratorClient) multipartRequest(ctx context.Context, path string, write func(*multipart.Writer) error) (*http.Request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := write(mw); err != nil {
		return nil, fmt.Errorf("encoding form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("encoding form: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func attachFile(mw *multipart.Writer, field, name string, data []byte) error {
	if name == "" {
		name = "workbook.xlsx"
	}
	part, err := mw.CreateFormFile(field, name)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

// Sheets returns every sheet name of the workbook, unfiltered.
func (c *FormGeneratorClient) Sheets(ctx context.Context, fileName string, workbook []byte) ([]string, error) {
	req, err := c.multipartRequest(ctx, "/sheets", func(mw *multipart.Writer) error {
		return attachFile(mw, "file", fileName, workbook)
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Sheets []interface{} `json:"sheets"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return cast.ToStringSlice(out.Sheets), nil
}

func (c *FormGeneratorClient) Generate(ctx context.Context, gen model.GenerateRequest) (string, error) {
	req, err := c.multipartRequest(ctx, "/generate", func(mw *multipart.Writer) error {
		if err := attachFile(mw, "metadata_file", gen.FileName, gen.File); err != nil {
			return err
		}
		if len(gen.Sheets) > 0 {
			if err := mw.WriteField("sheets", strings.Join(gen.Sheets, ",")); err != nil {
				return err
			}
		}
		if gen.Preview {
			return mw.WriteField("preview_mode", "true")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	var out struct {
		JobID interface{} `json:"job_id"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return "", err
	}
	jobID := cast.ToString(out.JobID)
	if jobID == "" {
		return "", errors.NewUpstreamError("form generator did not return a job id")
	}
	return jobID, nil
}

func (c *FormGeneratorClient) Status(ctx context.Context, jobID string) (*model.FormJob, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/status/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := c.doJSON(req, &out); err != nil {
		var se *StatusError
		if stderrors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", model.ErrJobNotFound, jobID)
		}
		return nil, err
	}
	job := &model.FormJob{
		JobID:    cast.ToString(out["job_id"]),
		Status:   model.JobStatus(strings.ToLower(cast.ToString(out["status"]))),
		Progress: cast.ToFloat64(out["progress"]),
		Reason:   cast.ToString(out["reason"]),
		Message:  cast.ToString(out["message"]),
	}
	if job.JobID == "" {
		job.JobID = jobID
	}
	if job.Reason == "" && job.Status == model.JobFailed {
		job.Reason = cast.ToString(out["error"])
	}
	return job, nil
}

// Forms lists generated forms. The API answers either names or objects.
func (c *FormGeneratorClient) Forms(ctx context.Context) ([]model.GeneratedForm, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/forms", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Forms []json.RawMessage `json:"forms"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	forms := make([]model.GeneratedForm, 0, len(out.Forms))
	for _, raw := range out.Forms {
		var name string
		if json.Unmarshal(raw, &name) == nil {
			forms = append(forms, model.GeneratedForm{Name: name})
			continue
		}
		var obj map[string]interface{}
		if json.Unmarshal(raw, &obj) != nil {
			continue
		}
		f := model.GeneratedForm{
			Name:           cast.ToString(obj["name"]),
			HasTranslation: cast.ToBool(obj["has_translation"]),
			UpdatedAt:      cast.ToString(obj["updated_at"]),
		}
		if f.Name != "" {
			forms = append(forms, f)
		}
	}
	return forms, nil
}

func (c *FormGeneratorClient) Form(ctx context.Context, name string, translation, download bool) (*model.FormArtifact, error) {
	path := "/forms/" + url.PathEscape(name)
	if translation {
		path += "/translation"
	}
	if download {
		path += "?download=true"
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading form %s: %w", name, err)
	}
	fileName := name + ".json"
	if translation {
		fileName = name + "_translations.json"
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	return &model.FormArtifact{Name: fileName, ContentType: contentType, Body: body}, nil
}

// Health returns the upstream health document.
func (c *FormGeneratorClient) Health(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	var out json.RawMessage
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
