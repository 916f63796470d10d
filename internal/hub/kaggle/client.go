package kaggle

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tunelab/tune/internal/hub"
)

const DefaultBaseURL = "https://www.kaggle.com/api/v1"

// Client is a minimal Kaggle Models API client: resolve a model handle,
// list its files, download them. Credentials are sent via basic auth, the
// same scheme the official kagglehub SDK uses.
type Client struct {
	baseURL  string
	username string
	key      string
	cacheDir string
	http     *http.Client
	logger   *zap.Logger
}

func NewClient(username, key, cacheDir string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  DefaultBaseURL,
		username: username,
		key:      key,
		cacheDir: cacheDir,
		logger:   logger,
		http: &http.Client{
			Timeout: 0,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 60 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   60 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
				IdleConnTimeout:       60 * time.Second,
			},
		},
	}
}

func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// Handle identifies a Kaggle model variation, e.g.
// "metaresearch/llama-3.2/pytorch/1b" with an optional trailing version.
type Handle struct {
	Owner     string
	Model     string
	Framework string
	Variation string
	Version   int
}

func ParseHandle(handle string) (*Handle, error) {
	parts := strings.Split(strings.Trim(handle, "/"), "/")
	if len(parts) != 4 && len(parts) != 5 {
		return nil, fmt.Errorf("invalid model handle: %q (expected owner/model/framework/variation)", handle)
	}

	h := &Handle{
		Owner:     parts[0],
		Model:     parts[1],
		Framework: parts[2],
		Variation: parts[3],
	}

	if len(parts) == 5 {
		version, err := strconv.Atoi(parts[4])
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("invalid model version in handle: %q", handle)
		}
		h.Version = version
	}

	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("invalid model handle: %q", handle)
		}
	}

	return h, nil
}

func (h *Handle) String() string {
	base := fmt.Sprintf("%s/%s/%s/%s", h.Owner, h.Model, h.Framework, h.Variation)
	if h.Version > 0 {
		return fmt.Sprintf("%s/%d", base, h.Version)
	}
	return base
}

type modelVersionResponse struct {
	CurrentVersionNumber int `json:"currentVersionNumber"`
}

type fileInfo struct {
	Name       string `json:"name"`
	TotalBytes int64  `json:"totalBytes"`
}

type listFilesResponse struct {
	Files []fileInfo `json:"files"`
}

func (c *Client) latestVersion(handle *Handle) (int, error) {
	path := fmt.Sprintf("/models/%s/%s/%s/%s/get",
		handle.Owner, handle.Model, handle.Framework, handle.Variation)

	var resp modelVersionResponse
	if err := c.getJSON(path, handle, &resp); err != nil {
		return 0, err
	}

	if resp.CurrentVersionNumber <= 0 {
		return 0, fmt.Errorf("model %s has no published version", handle)
	}

	return resp.CurrentVersionNumber, nil
}

func (c *Client) listFiles(handle *Handle, version int) ([]fileInfo, error) {
	path := fmt.Sprintf("/models/%s/%s/%s/%s/%d/files",
		handle.Owner, handle.Model, handle.Framework, handle.Variation, version)

	var resp listFilesResponse
	if err := c.getJSON(path, handle, &resp); err != nil {
		return nil, err
	}

	return resp.Files, nil
}

func (c *Client) getJSON(path string, handle *Handle, out interface{}) error {
	resp, err := c.do(path, handle)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response for %s: %w", path, err)
	}

	return nil
}

func (c *Client) do(path string, handle *Handle) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.username != "" || c.key != "" {
		req.SetBasicAuth(c.username, c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if err := c.classifyStatus(resp, handle); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

func (c *Client) classifyStatus(resp *http.Response, handle *Handle) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &hub.UnauthorizedError{
			Source: hub.SourceKaggle,
			Err:    fmt.Errorf("kaggle api returned status %d", resp.StatusCode),
		}
	case resp.StatusCode == http.StatusNotFound:
		return &hub.NotFoundError{
			RepoID: handle.String(),
			Source: hub.SourceKaggle,
			Err:    fmt.Errorf("kaggle api returned status %d", resp.StatusCode),
		}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("kaggle api returned status %d", resp.StatusCode)
	}

	return nil
}
