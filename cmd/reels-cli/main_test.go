package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraph serves both the video file and the Graph API endpoints.
type fakeGraph struct {
	mu          sync.Mutex
	videoStatus int
	createBody  string
	statuses    []string
	publishBody string
	hits        map[string]int
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		videoStatus: http.StatusOK,
		createBody:  `{"id":"123"}`,
		statuses:    []string{`{"status_code":"FINISHED","status":"Finished: Media has been uploaded"}`},
		publishBody: `{"id":"456"}`,
		hits:        map[string]int{},
	}
}

func (f *fakeGraph) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := r.Method + " " + r.URL.Path
	f.hits[key]++

	switch key {
	case "HEAD /video.mp4", "GET /video.mp4":
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(f.videoStatus)
	case "POST /v23.0/1789/media":
		_, _ = w.Write([]byte(f.createBody))
	case "GET /v23.0/123":
		n := f.hits[key] - 1
		if n >= len(f.statuses) {
			n = len(f.statuses) - 1
		}
		_, _ = w.Write([]byte(f.statuses[n]))
	case "POST /v23.0/1789/media_publish":
		_, _ = w.Write([]byte(f.publishBody))
	case "GET /v23.0/456":
		_, _ = w.Write([]byte(`{"permalink":"https://www.instagram.com/reel/XYZ/","id":"456"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"Unknown path","code":803}}`))
	}
}

type runOutput struct {
	code   int
	stdout string
	stderr string
	sleeps []time.Duration
}

// runCLI runs the CLI against fake. argsFn builds the flags from the server URL; nil uses defaults.
func runCLI(t *testing.T, fake *fakeGraph, argsFn func(srvURL string) []string) runOutput {
	t.Helper()
	srv := httptest.NewTLSServer(fake)
	t.Cleanup(srv.Close)

	t.Setenv("ACCESS_TOKEN", "tok")
	t.Setenv("IG_USER_ID", "1789")
	t.Setenv("APP_SECRET", "secret")
	t.Setenv("GRAPH_API_BASE", srv.URL+"/v23.0")
	t.Setenv("LOG_FORMAT", "json")

	args := []string{"--video-url", srv.URL + "/video.mp4", "--caption", "hi"}
	if argsFn != nil {
		args = argsFn(srv.URL)
	}

	var out runOutput
	var stdout, stderr bytes.Buffer
	d := deps{
		httpClient: srv.Client(),
		sleep: func(_ context.Context, dur time.Duration) error {
			out.sleeps = append(out.sleeps, dur)
			return nil
		},
	}
	out.code = run(context.Background(), args, &stdout, &stderr, d)
	out.stdout = stdout.String()
	out.stderr = stderr.String()
	return out
}

func TestRun_PublishesAndPrintsPermalink(t *testing.T) {
	fake := newFakeGraph()
	out := runCLI(t, fake, nil)

	require.Equal(t, 0, out.code, out.stderr)
	assert.Contains(t, out.stdout, "https://www.instagram.com/reel/XYZ/")
	assert.Contains(t, out.stdout, "Creation ID:  123")
	assert.Contains(t, out.stdout, "Media ID:     456")
	assert.Contains(t, out.stdout, "PUBLISHED")
	assert.Equal(t, 1, fake.count("GET /v23.0/123"))
	assert.Equal(t, 1, fake.count("POST /v23.0/1789/media_publish"))
	assert.Empty(t, out.sleeps)
}

func TestRun_CreateErrorExitsBeforePolling(t *testing.T) {
	fake := newFakeGraph()
	fake.createBody = `{"error":{"message":"Invalid parameter","code":100}}`
	out := runCLI(t, fake, nil)

	assert.Equal(t, 1, out.code)
	assert.Contains(t, out.stdout, "Create failed")
	assert.Contains(t, out.stdout, "Invalid parameter")
	assert.Contains(t, out.stdout, "code=100")
	assert.Zero(t, fake.count("GET /v23.0/123"))
}

func TestRun_PollsUntilFinished(t *testing.T) {
	fake := newFakeGraph()
	fake.statuses = []string{
		`{"status_code":"IN_PROGRESS"}`,
		`{"status_code":"IN_PROGRESS"}`,
		`{"status_code":"FINISHED"}`,
	}
	out := runCLI(t, fake, nil)

	require.Equal(t, 0, out.code, out.stderr)
	assert.Equal(t, []time.Duration{5 * time.Second, 7 * time.Second}, out.sleeps)
	assert.Equal(t, 3, fake.count("GET /v23.0/123"))
}

func TestRun_ErrorUploadingIsFatal(t *testing.T) {
	fake := newFakeGraph()
	fake.statuses = []string{`{"status_code":"ERROR_UPLOADING","status":"Error: upload failed"}`}
	out := runCLI(t, fake, nil)

	assert.Equal(t, 1, out.code)
	assert.Contains(t, out.stdout, "Processing failed")
	assert.Equal(t, 1, fake.count("GET /v23.0/123"))
	assert.Zero(t, fake.count("POST /v23.0/1789/media_publish"))
}

func TestRun_PublishWithoutIDStillSucceeds(t *testing.T) {
	fake := newFakeGraph()
	fake.publishBody = `{}`
	out := runCLI(t, fake, nil)

	assert.Equal(t, 0, out.code)
	assert.Contains(t, out.stdout, "no media id returned")
	assert.Zero(t, fake.count("GET /v23.0/456"))
}

func TestRun_UnreachableVideo(t *testing.T) {
	fake := newFakeGraph()
	fake.videoStatus = http.StatusNotFound
	out := runCLI(t, fake, nil)

	assert.Equal(t, 1, out.code)
	assert.Contains(t, out.stdout, "404")
	assert.Zero(t, fake.count("POST /v23.0/1789/media"))
}

func TestRun_MissingConfig(t *testing.T) {
	t.Setenv("ACCESS_TOKEN", "")
	t.Setenv("IG_USER_ID", "")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"--video-url", "https://example.com/a.mp4"}, &stdout, &stderr, deps{})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "configuration missing")
	assert.Empty(t, stdout.String())
}

func TestRun_MissingVideoURL(t *testing.T) {
	t.Setenv("ACCESS_TOKEN", "tok")
	t.Setenv("IG_USER_ID", "1789")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), nil, &stdout, &stderr, deps{})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Usage")
}

func TestRun_WritesRunRecord(t *testing.T) {
	dir := t.TempDir()
	out := runCLI(t, newFakeGraph(), func(srvURL string) []string {
		return []string{"--video-url", srvURL + "/video.mp4", "--data-dir", dir}
	})
	require.Equal(t, 0, out.code, out.stderr)

	runs, err := os.ReadDir(filepath.Join(dir, "jobs"))
	require.NoError(t, err)
	require.Len(t, runs, 1)

	raw, err := os.ReadFile(filepath.Join(dir, "jobs", runs[0].Name(), "result.json"))
	require.NoError(t, err)
	var result struct {
		Success bool `json:"success"`
		Media   struct {
			Permalink string `json:"permalink"`
		} `json:"media"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.True(t, result.Success)
	assert.Equal(t, "https://www.instagram.com/reel/XYZ/", result.Media.Permalink)

	input, err := os.ReadFile(filepath.Join(dir, "jobs", runs[0].Name(), "input.json"))
	require.NoError(t, err)
	assert.Contains(t, string(input), defaultCaption)
}
