// Package api talks to the recording server that collects exported
// sessions.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// UploadTimeout bounds a whole session upload, including the file body.
const UploadTimeout = 2 * time.Minute

// ErrEmptyExport is returned for a session file with no content.
var ErrEmptyExport = errors.New("exported session file is empty")

// StatusError is a non-200 answer from the recording server.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Op, e.Code, e.Message)
}

// Client handles communication with the recording server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: UploadTimeout},
	}
}

// Healthcheck checks if the recording server is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("failed to create healthcheck request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus("healthcheck", resp)
}

// Upload streams an exported session to the server. Gzipped exports are
// sent as application/gzip, plain ones as application/json.
func (c *Client) Upload(filePath string, meta core.UploadMetadata) error {
	ctx, cancel := context.WithTimeout(context.Background(), UploadTimeout)
	defer cancel()

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat session file: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s: %w", filePath, ErrEmptyExport)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	name := filepath.Base(filePath)

	go func() {
		pw.CloseWithError(c.writeForm(writer, file, name, meta))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sessions/add", pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload of %s failed: %w", name, err)
	}
	defer resp.Body.Close()
	return checkStatus("upload", resp)
}

// writeForm writes the session fields and then the file part.
func (c *Client) writeForm(w *multipart.Writer, file io.Reader, name string, meta core.UploadMetadata) error {
	fields := [][2]string{
		{"secret", c.apiKey},
		{"filename", name},
		{"sessionName", meta.SessionName},
		{"sessionDuration", strconv.FormatFloat(meta.Duration, 'f', 6, 64)},
		{"tag", meta.Tag},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("failed to write field %s: %w", f[0], err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", exportContentType(name))
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy session file: %w", err)
	}
	return w.Close()
}

func exportContentType(name string) string {
	if strings.HasSuffix(name, ".gz") {
		return "application/gzip"
	}
	return "application/json"
}

// checkStatus turns a non-200 answer into a StatusError carrying the
// first line of the body.
func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg, _, _ := strings.Cut(strings.TrimSpace(string(body)), "\n")
	return &StatusError{Op: op, Code: resp.StatusCode, Message: msg}
}
