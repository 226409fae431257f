package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormGenServer(t *testing.T, mux *http.ServeMux) (*FormGeneratorClient, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	m := metrics.New(nil)
	return NewFormGeneratorClient(srv.URL+"/api/v1/form-generator/", "", 5*time.Second, m), m
}

func TestFormGeneratorClient_Sheets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/form-generator/sheets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "forms.xlsx", hdr.Filename)
		assert.Equal(t, "xlsx-bytes", string(data))
		_, _ = w.Write([]byte(`{"sheets":[" F01 Vitals","Lists"]}`))
	})
	c, m := newFormGenServer(t, mux)

	sheets, err := c.Sheets(context.Background(), "forms.xlsx", []byte("xlsx-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []string{" F01 Vitals", "Lists"}, sheets)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("form_generator", "2xx")))
}

func TestFormGeneratorClient_Generate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/form-generator/generate", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "F01,F02", r.FormValue("sheets"))
		assert.Equal(t, "true", r.FormValue("preview_mode"))
		_, _, err := r.FormFile("metadata_file")
		assert.NoError(t, err)
		_, _ = w.Write([]byte(`{"job_id": 42}`))
	})
	c, _ := newFormGenServer(t, mux)

	id, err := c.Generate(context.Background(), model.GenerateRequest{FileName: "f.xlsx", File: []byte("x"), Sheets: []string{"F01", "F02"}, Preview: true})
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestFormGeneratorClient_Status(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/form-generator/status/job-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"FAILED","progress":"55.5","error":"sheet F03 is empty"}`))
	})
	mux.HandleFunc("/api/v1/form-generator/status/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Job not found"}`, http.StatusNotFound)
	})
	c, _ := newFormGenServer(t, mux)

	job, err := c.Status(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, &model.FormJob{JobID: "job-1", Status: model.JobFailed, Progress: 55.5, Reason: "sheet F03 is empty"}, job)

	_, err = c.Status(context.Background(), "job-2")
	assert.ErrorIs(t, err, model.ErrJobNotFound)
}

func TestFormGeneratorClient_Forms(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/form-generator/forms", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"forms":["F01_Vitals",{"name":"F02_Triage","has_translation":"true"},{"nope":1},7]}`))
	})
	mux.HandleFunc("/api/v1/form-generator/forms/F01_Vitals/translation", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("download"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"en":{}}`))
	})
	c, _ := newFormGenServer(t, mux)

	forms, err := c.Forms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.GeneratedForm{{Name: "F01_Vitals"}, {Name: "F02_Triage", HasTranslation: true}}, forms)

	art, err := c.Form(context.Background(), "F01_Vitals", true, true)
	require.NoError(t, err)
	assert.Equal(t, "F01_Vitals_translations.json", art.Name)
	assert.JSONEq(t, `{"en":{}}`, string(art.Body))
}

func TestFormGeneratorClient_UpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/form-generator/forms", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c, m := newFormGenServer(t, mux)

	_, err := c.Forms(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.StatusCode)
	assert.Equal(t, "boom", se.Body)
	assert.True(t, errors.IsUpstream(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("form_generator", "5xx")))
}

func TestFormGeneratorClient_Health(t *testing.T) {
	health := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer health.Close()

	c := NewFormGeneratorClient("http://127.0.0.1:1/unused", health.URL, time.Second, nil)
	doc, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"healthy"}`, string(doc))

	down := NewFormGeneratorClient("http://127.0.0.1:1", "", 200*time.Millisecond, nil)
	_, err = down.Health(context.Background())
	assert.Error(t, err)
}
