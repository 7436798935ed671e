package zenodo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// ProductionURL is the API base URL of Zenodo.
	ProductionURL = "https://zenodo.org/api"
	// SandboxURL is the API base URL of the Zenodo sandbox.
	SandboxURL = "https://sandbox.zenodo.org/api"

	// DefaultTimeout applies to every API call except file uploads.
	DefaultTimeout = 60 * time.Second
	// DefaultRateLimit in requests per second. Zenodo allows 100 requests
	// per minute for authenticated users.
	DefaultRateLimit = 1.5

	lpZenodo = "Zenodo"
)

// Links holds the link relations of a deposition.
type Links struct {
	Self    string `json:"self"`
	HTML    string `json:"html"`
	Bucket  string `json:"bucket"`
	Publish string `json:"publish"`
	Files   string `json:"files"`
}

// Deposition is the representation of a deposition returned by the API.
type Deposition struct {
	ID        int       `json:"id"`
	RecordID  int       `json:"record_id"`
	State     string    `json:"state"`
	Submitted bool      `json:"submitted"`
	DOI       string    `json:"doi"`
	Links     Links     `json:"links"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// File is an uploaded deposition file.
type File struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// Client talks to the Zenodo deposition API. Calls are rate limited and
// subject to a per-call timeout.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	timeout    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSandbox directs the client to the Zenodo sandbox.
func WithSandbox() ClientOption {
	return func(c *Client) {
		c.baseURL = SandboxURL
	}
}

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of a single API call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates a client authenticating with the given personal access
// token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		token:      token,
		baseURL:    ProductionURL,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload creates a new deposition with the given metadata, uploads the files
// into its bucket and, if publish is set, publishes it. The metadata is
// validated before anything is sent.
func (c *Client) Upload(ctx context.Context, md *Metadata, paths []string, publish bool) (*Deposition, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}

	dep, err := c.CreateDeposition(ctx, md)
	if err != nil {
		return nil, err
	}
	for _, fpath := range paths {
		if _, err := c.UploadFile(ctx, dep, fpath); err != nil {
			return dep, err
		}
	}
	if !publish {
		return dep, nil
	}
	return c.Publish(ctx, dep)
}

type depositionRequest struct {
	Metadata *Metadata `json:"metadata"`
}

// CreateDeposition creates an empty deposition carrying the metadata.
func (c *Client) CreateDeposition(ctx context.Context, md *Metadata) (*Deposition, error) {
	body, err := json.Marshal(depositionRequest{Metadata: md})
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	dep := new(Deposition)
	if err := c.callJSON(ctx, http.MethodPost, c.baseURL+"/deposit/depositions", body, dep); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"source": lpZenodo,
		"id":     dep.ID,
		"html":   dep.Links.HTML,
	}).Debug("Created deposition")
	return dep, nil
}

// UploadFile streams the file into the deposition's bucket under its base
// name. No timeout is applied beyond the context's own.
func (c *Client) UploadFile(ctx context.Context, dep *Deposition, fpath string) (*File, error) {
	if dep.Links.Bucket == "" {
		return nil, fmt.Errorf("deposition %d has no bucket link", dep.ID)
	}
	fp, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	stat, err := fp.Stat()
	if err != nil {
		return nil, err
	}

	target := dep.Links.Bucket + "/" + url.PathEscape(filepath.Base(fpath))
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, fp)
	if err != nil {
		return nil, err
	}
	req.ContentLength = stat.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	c.authorize(req)

	log.WithFields(log.Fields{"source": lpZenodo, "file": fpath, "target": target}).Debug("Uploading file")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload of '%s' failed: %w", fpath, err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	file := new(File)
	if err := json.NewDecoder(resp.Body).Decode(file); err != nil {
		return nil, fmt.Errorf("invalid upload response: %w", err)
	}
	return file, nil
}

// Publish publishes the deposition. Published records cannot be deleted.
func (c *Client) Publish(ctx context.Context, dep *Deposition) (*Deposition, error) {
	target := dep.Links.Publish
	if target == "" {
		target = fmt.Sprintf("%s/deposit/depositions/%d/actions/publish", c.baseURL, dep.ID)
	}
	published := new(Deposition)
	if err := c.callJSON(ctx, http.MethodPost, target, nil, published); err != nil {
		return nil, err
	}
	return published, nil
}

// callJSON performs a rate limited API call with the client timeout and
// decodes a JSON response into out.
func (c *Client) callJSON(ctx context.Context, method, target string, body []byte, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", redact(target), err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from %s: %w", redact(target), err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

type errorResponse struct {
	Status  int          `json:"status"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

// checkResponse returns an error if the HTTP response indicates a problem.
func checkResponse(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case resp.StatusCode >= 400:
		apierr := &APIError{StatusCode: resp.StatusCode}
		data, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 1<<20))
		var eresp errorResponse
		if err := json.Unmarshal(data, &eresp); err == nil {
			apierr.Message = eresp.Message
			apierr.Errors = eresp.Errors
		} else {
			apierr.Message = strings.TrimSpace(string(data))
		}
		if apierr.Message == "" {
			apierr.Message = http.StatusText(resp.StatusCode)
		}
		return apierr
	}
	return nil
}

// redact strips the query of a URL for log and error messages.
func redact(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	u.RawQuery = ""
	return u.String()
}
