package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dgallion1/spinebank/internal/config"
	"github.com/dgallion1/spinebank/internal/headrules"
	"github.com/dgallion1/spinebank/internal/pipeline"
)

const (
	testKey   = "secret"
	testTrees = "(S (NP (DT The) (NN cat)) (VP (VBD sat)))\n"
	testRules = "S right-to-left VP S\nVP left-to-right VBD VP\nNP right NN NNS PRP NP\n"
	catSpines = "1\tThe\tDT\tDT\t2\t0\ts\n2\tcat\tNN\tNN+NP\t3\t1\ts\n3\tsat\tVBD\tVBD+VP+S\t0\t0\ts\n\n"
)

func newTestServer(t *testing.T) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	rules, err := headrules.Parse(strings.NewReader(testRules))
	require.NoError(t, err)
	cfg := config.Config{
		APIKey:              testKey,
		WorkerCount:         1,
		MaxQueueSize:        4,
		SentenceConcurrency: 2,
		MaxUploadBytes:      1 << 16,
		JobTTL:              time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, rules, log)
	return NewServer(orch, log, cfg), orch
}

func do(t *testing.T, s *Server, method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile(name, name+".txt")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func TestHealth_NoAuth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestAuth_Rejects(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(testTrees)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(testTrees))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExtract(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/extract", "", strings.NewReader(testTrees))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, catSpines, rec.Body.String())
}

func TestExtract_UnknownFormat(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/extract?format=conll", "", strings.NewReader(testTrees))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtract_TooLarge(t *testing.T) {
	s, _ := newTestServer(t)
	big := strings.Repeat(testTrees, (1<<16)/len(testTrees)+1)
	rec := do(t, s, http.MethodPost, "/api/extract", "", strings.NewReader(big))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestReconstruct(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/reconstruct?format=bracket", "", strings.NewReader(catSpines))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "(NP (DT The) (NN cat))")
}

func TestReconstruct_Malformed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/reconstruct", "", strings.NewReader("1\tThe\tDT\n\n"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReconstruct_PartialFailure(t *testing.T) {
	s, _ := newTestServer(t)
	cyclic := "1\ta\tX\tX\t2\t0\ts\n2\tb\tX\tX\t1\t0\ts\n\n"
	rec := do(t, s, http.MethodPost, "/api/reconstruct?format=bracket", "", strings.NewReader(catSpines+cyclic))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Errors []string `json:"errors"`
		Trees  string   `json:"trees"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	require.True(t, strings.HasPrefix(body.Errors[0], "sentence 2:"), body.Errors[0])
	require.Contains(t, body.Trees, "cat")
}

func TestRender(t *testing.T) {
	s, _ := newTestServer(t)
	for _, tc := range []struct{ from, body string }{
		{"spines", catSpines},
		{"bracket", testTrees},
	} {
		t.Run(tc.from, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/render?from="+tc.from, "", strings.NewReader(tc.body))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			require.Contains(t, rec.Body.String(), "cat")
		})
	}
}

func TestRender_Fragment(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/render?from=bracket&fragment=true", "", strings.NewReader(testTrees+testTrees))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	require.NotContains(t, body, "<!DOCTYPE html>")
	require.Equal(t, 2, strings.Count(body, `<ul class="tree">`))
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t)
	files := map[string]string{"train": catSpines, "dev": catSpines}

	ct, body := multipartBody(t, nil, files)
	rec := do(t, s, http.MethodPost, "/api/stats", ct, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 1.0, got["accessible_ratio"])

	ct, body = multipartBody(t, nil, files)
	req := httptest.NewRequest(http.MethodPost, "/api/stats", body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", "text/html")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<table>")
}

func TestStats_MissingDev(t *testing.T) {
	s, _ := newTestServer(t)
	ct, body := multipartBody(t, nil, map[string]string{"train": catSpines})
	rec := do(t, s, http.MethodPost, "/api/stats", ct, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobs_Lifecycle(t *testing.T) {
	s, orch := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orch.Start(ctx)
	defer orch.Stop()

	ct, body := multipartBody(t, map[string]string{"kind": "extract", "format": "bracket"}, map[string]string{"file": testTrees})
	rec := do(t, s, http.MethodPost, "/api/jobs", ct, body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var submitted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	require.NotEmpty(t, submitted.JobID)
	require.Equal(t, "/api/jobs/"+submitted.JobID+"/status", submitted.PollURL)

	require.Eventually(t, func() bool {
		rec := do(t, s, http.MethodGet, submitted.PollURL, "", nil)
		var snap pipeline.JobSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			return false
		}
		return snap.Status.Done()
	}, 5*time.Second, 10*time.Millisecond)

	rec = do(t, s, http.MethodGet, "/api/jobs/"+submitted.JobID+"/result", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(pipeline.StatusCompleted), rec.Header().Get("X-Job-Status"))
	require.Equal(t, catSpines, rec.Body.String())
}

func TestJobs_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/jobs/nope/status", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/jobs/nope/result", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobs_ResultBeforeDone(t *testing.T) {
	s, orch := newTestServer(t)
	// Workers are not started, so the job stays queued.
	job := pipeline.NewJob(pipeline.KindExtract, "bracket", "a.mrg", []byte(testTrees))
	require.NoError(t, orch.Submit(job))

	rec := do(t, s, http.MethodGet, "/api/jobs/"+job.ID+"/result", "", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestJobs_UnknownKind(t *testing.T) {
	s, _ := newTestServer(t)
	ct, body := multipartBody(t, map[string]string{"kind": "render"}, map[string]string{"file": testTrees})
	rec := do(t, s, http.MethodPost, "/api/jobs", ct, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSanitizeFilename(t *testing.T) {
	for in, want := range map[string]string{
		"../../etc/passwd": "passwd",
		"wsj_0001.mrg":     "wsj_0001.mrg",
		"":                 "unnamed",
	} {
		require.Equal(t, want, sanitizeFilename(in), in)
	}
}
