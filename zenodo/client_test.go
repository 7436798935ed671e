package zenodo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

const testToken = "s3cr3t"

// newTestClient returns a client talking to srv without rate limiting delays.
func newTestClient(srv *httptest.Server) *Client {
	return NewClient(testToken, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithRateLimit(1000), WithTimeout(5*time.Second))
}

// fakeZenodo records the requests it serves and behaves like the deposition API.
type fakeZenodo struct {
	sync.Mutex
	srv       *httptest.Server
	requests  []string
	uploads   map[string]string
	metadata  *Metadata
	published bool
}

func newFakeZenodo(t *testing.T) *fakeZenodo {
	fz := &fakeZenodo{uploads: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/deposit/depositions", func(w http.ResponseWriter, r *http.Request) {
		fz.record(r)
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req depositionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Invalid deposition request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fz.metadata = req.Metadata
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id": 42, "state": "unsubmitted", "submitted": false, "links": {"html": "%[1]s/deposit/42", "bucket": "%[1]s/files/bucket-42", "publish": "%[1]s/deposit/depositions/42/actions/publish"}}`, fz.srv.URL)
	})
	mux.HandleFunc("/files/bucket-42/", func(w http.ResponseWriter, r *http.Request) {
		fz.record(r)
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		data, _ := ioutil.ReadAll(r.Body)
		key := strings.TrimPrefix(r.URL.Path, "/files/bucket-42/")
		fz.uploads[key] = string(data)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"key": %q, "size": %d, "checksum": "md5:0"}`, key, len(data))
	})
	mux.HandleFunc("/deposit/depositions/42/actions/publish", func(w http.ResponseWriter, r *http.Request) {
		fz.record(r)
		fz.published = true
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"id": 42, "record_id": 42, "state": "done", "submitted": true, "doi": "10.5072/zenodo.42", "links": {"html": "https://sandbox.zenodo.org/records/42"}}`)
	})
	fz.srv = httptest.NewServer(mux)
	return fz
}

func (fz *fakeZenodo) record(r *http.Request) {
	fz.Lock()
	defer fz.Unlock()
	fz.requests = append(fz.requests, r.Method+" "+r.URL.Path)
}

func writeUploadFile(t *testing.T) (string, func()) {
	tmpDir, err := ioutil.TempDir("", "test_zenodo_upload")
	if err != nil {
		t.Fatalf("Error creating tmp dir: %v", err)
	}
	fname := filepath.Join(tmpDir, "demo crate.zip")
	if err = ioutil.WriteFile(fname, []byte("zipdata"), 0644); err != nil {
		t.Fatalf("Error writing upload file: %v", err)
	}
	return fname, func() { os.RemoveAll(tmpDir) }
}

func TestUpload(t *testing.T) {
	fz := newFakeZenodo(t)
	defer fz.srv.Close()
	fname, cleanup := writeUploadFile(t)
	defer cleanup()

	client := newTestClient(fz.srv)
	dep, err := client.Upload(context.Background(), validMetadata(), []string{fname}, false)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if dep.ID != 42 || dep.Submitted {
		t.Fatalf("Unexpected deposition: %+v", dep)
	}
	if fz.published {
		t.Fatalf("Deposition published without request")
	}
	if fz.uploads["demo crate.zip"] != "zipdata" {
		t.Fatalf("Unexpected uploads: %v", fz.uploads)
	}
	if fz.metadata == nil || fz.metadata.Title != "Demo Crate" || *fz.metadata.License != "cc-by-4.0" {
		t.Fatalf("Unexpected metadata sent: %+v", fz.metadata)
	}
	if fz.metadata.Creators[0].GND != nil {
		t.Fatalf("GND should not be sent")
	}
}

func TestUploadPublish(t *testing.T) {
	fz := newFakeZenodo(t)
	defer fz.srv.Close()
	fname, cleanup := writeUploadFile(t)
	defer cleanup()

	client := newTestClient(fz.srv)
	dep, err := client.Upload(context.Background(), validMetadata(), []string{fname}, true)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !fz.published || !dep.Submitted || dep.DOI != "10.5072/zenodo.42" {
		t.Fatalf("Deposition not published: %+v", dep)
	}
	expected := []string{
		"POST /deposit/depositions",
		"PUT /files/bucket-42/demo crate.zip",
		"POST /deposit/depositions/42/actions/publish",
	}
	if strings.Join(fz.requests, "|") != strings.Join(expected, "|") {
		t.Fatalf("Unexpected request sequence: %v", fz.requests)
	}
}

func TestUploadInvalidMetadata(t *testing.T) {
	fz := newFakeZenodo(t)
	defer fz.srv.Close()

	md := validMetadata()
	md.Title = ""
	_, err := newTestClient(fz.srv).Upload(context.Background(), md, []string{"unused"}, false)
	var verr *ValidationError
	if !errors.As(err, &verr) || !verr.Has("title") {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if len(fz.requests) != 0 {
		t.Fatalf("Invalid metadata should not be sent: %v", fz.requests)
	}
}

// respondWith returns a server answering every request with the given status
// and body.
func respondWith(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestErrorMapping(t *testing.T) {
	createWith := func(status int, body string) error {
		srv := respondWith(status, body)
		defer srv.Close()
		_, err := newTestClient(srv).CreateDeposition(context.Background(), validMetadata())
		return err
	}

	if err := createWith(http.StatusTooManyRequests, ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got %v", err)
	}

	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		if err := createWith(code, ""); !errors.Is(err, ErrAuth) {
			t.Fatalf("Expected ErrAuth for %d, got %v", code, err)
		}
	}

	body := `{"status": 400, "message": "Validation error.", "errors": [{"field": "metadata.creators.0.orcid", "message": "Not a valid ORCID identifier."}]}`
	err := createWith(http.StatusBadRequest, body)
	var apierr *APIError
	if !errors.As(err, &apierr) {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}
	if apierr.StatusCode != 400 || apierr.Message != "Validation error." || len(apierr.Errors) != 1 {
		t.Fatalf("Unexpected API error: %+v", apierr)
	}
	if !strings.Contains(apierr.Error(), "Field metadata.creators.0.orcid: Not a valid ORCID identifier.") {
		t.Fatalf("Field errors missing from message: %q", apierr.Error())
	}

	err = createWith(http.StatusInternalServerError, "upstream failure")
	if !errors.As(err, &apierr) || apierr.Message != "upstream failure" {
		t.Fatalf("Expected plain text API error, got %v", err)
	}

	err = createWith(http.StatusNotFound, "")
	if !errors.As(err, &apierr) || apierr.Message != "Not Found" {
		t.Fatalf("Expected status text as message, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(testToken, WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond))
	if _, err := client.CreateDeposition(context.Background(), validMetadata()); err == nil {
		t.Fatalf("Expected timeout error")
	}
}

func TestClientOptions(t *testing.T) {
	if c := NewClient(""); c.BaseURL() != ProductionURL {
		t.Fatalf("Unexpected default base URL: %s", c.BaseURL())
	}
	if c := NewClient("", WithSandbox()); c.BaseURL() != SandboxURL {
		t.Fatalf("Unexpected sandbox base URL: %s", c.BaseURL())
	}
	if c := NewClient("", WithBaseURL("http://localhost:5000/api/")); c.BaseURL() != "http://localhost:5000/api" {
		t.Fatalf("Trailing slash not trimmed: %s", c.BaseURL())
	}
	if c := NewClient("", WithTimeout(0)); c.timeout != DefaultTimeout {
		t.Fatalf("Zero timeout should keep default: %v", c.timeout)
	}
}

func TestSearchLicenses(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vocabularies/licenses" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		query = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"hits": {"total": 2, "hits": [
			{"id": "mit", "title": {"en": "MIT License"}, "props": {"url": "https://opensource.org/licenses/MIT"}},
			{"id": "mit-0", "title": {"en": "MIT No Attribution"}, "props": {"url": "https://opensource.org/licenses/MIT-0"}}
		]}}`)
	}))
	defer srv.Close()
	client := newTestClient(srv)

	licenses, err := client.SearchLicenses(context.Background(), "MIT License")
	if err != nil {
		t.Fatalf("License search failed: %v", err)
	}
	if query != "MIT License" {
		t.Fatalf("Query not passed on: %q", query)
	}
	if len(licenses) != 2 || licenses[0].Title != "MIT License" || licenses[1].URL != "https://opensource.org/licenses/MIT-0" {
		t.Fatalf("Unexpected licenses: %+v", licenses)
	}

	for _, q := range []string{"mit license", "MIT", "https://opensource.org/licenses/mit"} {
		lic, err := client.FindLicense(context.Background(), q)
		if err != nil || lic == nil || lic.ID != "mit" {
			t.Fatalf("Expected license mit for %q, got %+v (%v)", q, lic, err)
		}
	}
	lic, err := client.FindLicense(context.Background(), "MIT-like")
	if err != nil || lic != nil {
		t.Fatalf("Expected no match, got %+v (%v)", lic, err)
	}
}
