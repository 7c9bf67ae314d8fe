package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"newsrelay/internal/config"
	"newsrelay/internal/domain/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeWatson stands in for both the IAM token endpoint and the Discovery API
type fakeWatson struct {
	srv         *httptest.Server
	tokenCalls  int32
	queryCalls  int32
	queryStatus int
	queryBody   string
}

func newFakeWatson(t *testing.T) *fakeWatson {
	t.Helper()
	f := &fakeWatson{queryStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /identity/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		_, _ = io.WriteString(w, `{"access_token":"iam-token","expires_in":3600}`)
	})
	mux.HandleFunc("GET /v1/environments/system/collections/news-en/query", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.queryCalls, 1)
		if r.Header.Get("Authorization") != "Bearer iam-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"code":401,"error":"Unauthorized"}`)
			return
		}
		w.WriteHeader(f.queryStatus)
		_, _ = io.WriteString(w, f.queryBody)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeWatson) config() *config.Config {
	return &config.Config{
		Port:            "7000",
		DiscoveryAPIKey: "key",
		DiscoveryURL:    f.srv.URL,
		AuthType:        config.AuthIAM,
		AuthURL:         f.srv.URL + "/identity/token",
		Scope: models.Scope{
			EnvironmentID: "system",
			CollectionID:  "news-en",
			Version:       "2019-04-30",
			Count:         10,
		},
	}
}

func newRelay(t *testing.T, cfg *config.Config, opts Options) *httptest.Server {
	t.Helper()
	svc, err := SetupQueryService(cfg, discardLogger())
	if err != nil {
		t.Fatalf("SetupQueryService: %v", err)
	}
	relay := httptest.NewServer(NewHandler(svc, opts, discardLogger()))
	t.Cleanup(relay.Close)
	return relay
}

func postQuery(t *testing.T, url, query string) (int, string) {
	t.Helper()
	resp, err := http.Post(url+"/api/query", "application/json", strings.NewReader(fmt.Sprintf(`{"query":%q}`, query)))
	if err != nil {
		t.Fatalf("POST /api/query: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRelay_EndToEnd(t *testing.T) {
	watson := newFakeWatson(t)
	watson.queryBody = `{"matching_results":2,"results":[` +
		`{"title":"Heatwave","text":"Hot.","url":"https://n.example/1","crawl_date":"2024-07-01T00:00:00Z"},` +
		`{"title":"Storms","text":"Wet.","url":"https://n.example/2","crawl_date":"2024-07-02T00:00:00Z"}]}`
	relay := newRelay(t, watson.config(), Options{CORSOrigins: "*"})

	for i := 0; i < 2; i++ {
		status, body := postQuery(t, relay.URL, "climate")
		if status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}

		var env models.Envelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
		if env.Err || len(env.Results) != 2 {
			t.Fatalf("envelope = %s", body)
		}
		first, _ := models.Summarize(env.Results[0])
		if first.Title != "Heatwave" || first.Date() != "2024-07-01" {
			t.Errorf("first result = %+v", first)
		}
	}

	if n := atomic.LoadInt32(&watson.tokenCalls); n != 1 {
		t.Errorf("IAM token fetched %d times, want 1", n)
	}
	if n := atomic.LoadInt32(&watson.queryCalls); n != 2 {
		t.Errorf("discovery queried %d times, want 2", n)
	}
}

func TestRelay_UpstreamFailureIsErrorFlag(t *testing.T) {
	watson := newFakeWatson(t)
	watson.queryStatus = http.StatusTooManyRequests
	watson.queryBody = `{"code":429,"error":"Rate limit exceeded"}`
	relay := newRelay(t, watson.config(), Options{})

	status, body := postQuery(t, relay.URL, "climate")
	if status != http.StatusOK || body != `{"err":true}` {
		t.Errorf("got %d %s, want 200 {\"err\":true}", status, body)
	}
	if n := atomic.LoadInt32(&watson.queryCalls); n != 1 {
		t.Errorf("discovery queried %d times, want 1 (no retries)", n)
	}
}

func TestRelay_UnreachableUpstreamIsErrorFlag(t *testing.T) {
	watson := newFakeWatson(t)
	cfg := watson.config()
	watson.srv.Close()
	relay := newRelay(t, cfg, Options{})

	status, body := postQuery(t, relay.URL, "climate")
	if status != http.StatusOK || body != `{"err":true}` {
		t.Errorf("got %d %s, want 200 {\"err\":true}", status, body)
	}
}

func TestRelay_CORS(t *testing.T) {
	watson := newFakeWatson(t)
	relay := newRelay(t, watson.config(), Options{CORSOrigins: "*"})

	req, _ := http.NewRequest(http.MethodOptions, relay.URL+"/api/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRelay_StaticBundle(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>console</h1>"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "static"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "static", "app.js"), []byte("console.log(1)"), 0644); err != nil {
		t.Fatal(err)
	}

	watson := newFakeWatson(t)
	watson.queryBody = `{"results":[]}`
	relay := newRelay(t, watson.config(), Options{StaticDir: dir})

	for path, want := range map[string]string{
		"/":              "<h1>console</h1>",
		"/static/app.js": "console.log(1)",
	} {
		resp, err := http.Get(relay.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || string(body) != want {
			t.Errorf("GET %s = %d %q, want 200 %q", path, resp.StatusCode, body, want)
		}
	}

	resp, err := http.Get(relay.URL + "/missing.css")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /missing.css = %d, want 404", resp.StatusCode)
	}

	// API still answers next to the bundle
	status, body := postQuery(t, relay.URL, "anything")
	if status != http.StatusOK || body != `{"err":false,"results":[]}` {
		t.Errorf("query = %d %s", status, body)
	}
}

func TestRelay_APIOnlyHasNoStaticFiles(t *testing.T) {
	watson := newFakeWatson(t)
	relay := newRelay(t, watson.config(), Options{})

	resp, err := http.Get(relay.URL + "/index.html")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /index.html = %d, want 404", resp.StatusCode)
	}
}

func TestSplitOrigins(t *testing.T) {
	got := splitOrigins(" http://a.example, ,http://b.example ")
	if len(got) != 2 || got[0] != "http://a.example" || got[1] != "http://b.example" {
		t.Errorf("splitOrigins = %q", got)
	}
}

func TestRelay_NonStringQueryIsErrorFlag(t *testing.T) {
	watson := newFakeWatson(t)
	relay := newRelay(t, watson.config(), Options{})

	for _, body := range []string{`{"query":42}`, `{"query":["a"]}`, `{"query":null}`, `{"query":true}`} {
		resp, err := http.Post(relay.URL+"/api/query", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", body, err)
		}
		got, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK || string(got) != `{"err":true}` {
			t.Errorf("POST %s = %d %s, want 200 {\"err\":true}", body, resp.StatusCode, got)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("POST %s Content-Type = %q", body, ct)
		}
	}

	if n := atomic.LoadInt32(&watson.queryCalls); n != 0 {
		t.Errorf("discovery queried %d times, want 0", n)
	}
}

// panickingService fails every query with a panic
type panickingService struct{}

func (panickingService) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error) {
	panic("boom")
}

func TestRelay_PanickingRequestIsStillLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	relay := httptest.NewServer(NewHandler(panickingService{}, Options{}, logger))
	defer relay.Close()

	status, _ := postQuery(t, relay.URL, "climate")
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
	relay.Close()

	var sawPanic, sawRequest bool
	scanner := bufio.NewScanner(&logs)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("decode log line %s: %v", scanner.Bytes(), err)
		}
		switch entry["msg"] {
		case "panic recovered":
			sawPanic = true
		case "request":
			sawRequest = true
			if entry["status"] != float64(http.StatusInternalServerError) || entry["path"] != "/api/query" {
				t.Errorf("request line = %v", entry)
			}
			if id, _ := entry["request_id"].(string); id == "" {
				t.Error("request line has no request_id")
			}
		}
	}
	if !sawPanic || !sawRequest {
		t.Errorf("panic logged = %v, request logged = %v\n%s", sawPanic, sawRequest, logs.String())
	}
}
