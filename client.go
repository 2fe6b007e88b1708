package pushover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/pushover/core/api"
	"github.com/kart-io/pushover/core/errors"
	"github.com/kart-io/pushover/core/message"
	"github.com/kart-io/pushover/logger"
	"github.com/kart-io/pushover/observability"
)

// DefaultBaseURL is the Pushover REST API base endpoint.
const DefaultBaseURL = "https://api.pushover.net/1/"

const (
	pathValidate = "users/validate.json"
	pathLimits   = "apps/limits.json"
	pathReceipts = "receipts/%s.json"
)

// Payload is the interface shared by Message and Glance. A payload knows
// its endpoint sub-path, its transport field mapping, an optional
// attachment and the response slot filled in after a send.
type Payload interface {
	Endpoint() string
	Fields() map[string]string
	Attachment() *message.Attachment
	Response() *api.Response
	SetResponse(*api.Response)
}

// credentials holds the caller-supplied user key and application token.
// Immutable after client construction.
type credentials struct {
	userKey  string
	apiToken string
}

// Client issues synchronous requests against the Pushover API. One
// blocking HTTP round trip per operation, no retries. The client keeps a
// single last-sent payload slot, overwritten on every send; it is meant
// for serial use.
type Client struct {
	creds      credentials
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	telemetry  *observability.Telemetry

	mu       sync.Mutex
	lastSent Payload
}

// NewClient creates a client for the given user key and application token.
func NewClient(userKey, apiToken string, opts ...Option) (*Client, error) {
	if userKey == "" || apiToken == "" {
		return nil, errors.ErrInvalidCredentials
	}

	c := &Client{
		creds:      credentials{userKey: userKey, apiToken: apiToken},
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// VerifyUser validates the client's user key and application token
// against the API. The decoded response is returned together with a
// categorized error when the API rejected the credentials; a
// verified / not-verified line is logged either way.
func (c *Client) VerifyUser(ctx context.Context) (*api.Response, error) {
	if c.telemetry != nil {
		var span trace.Span
		ctx, span = c.telemetry.TraceOperation(ctx, "pushover.verify_user")
		defer span.End()
		c.telemetry.RecordCall(ctx, "verify_user")
	}

	body, err := json.Marshal(map[string]string{
		"token": c.creds.apiToken,
		"user":  c.creds.userKey,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeSendingFailed, errors.CategoryTransport, "encode validation request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathValidate, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.CodeSendingFailed, errors.CategoryTransport, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp := &api.Response{}
	status, raw, doErr := c.do(req, resp)
	if raw == nil {
		return nil, doErr
	}
	resp.HTTPStatus = status
	resp.Raw = raw

	if resp.OK() {
		c.logger.Info("user is verified")
	} else {
		c.logger.Info("user is not verified", "errors", strings.Join(resp.Errors, "; "))
	}
	return resp, doErr
}

// Limits fetches the application's current monthly quota usage.
func (c *Client) Limits(ctx context.Context) (*api.Limits, error) {
	if c.telemetry != nil {
		var span trace.Span
		ctx, span = c.telemetry.TraceOperation(ctx, "pushover.limits")
		defer span.End()
		c.telemetry.RecordCall(ctx, "limits")
	}

	req, err := c.newGetRequest(ctx, c.baseURL+pathLimits)
	if err != nil {
		return nil, err
	}

	var limits api.Limits
	if _, _, err := c.do(req, &limits); err != nil {
		return nil, err
	}
	return &limits, nil
}

// Send merges the client credentials with the payload's serialized
// fields and posts them to the payload's endpoint. A payload carrying an
// attachment goes out as a multipart upload, anything else as a plain
// form POST. The decoded response is attached to the payload and the
// payload recorded as last sent before Send returns.
func (c *Client) Send(ctx context.Context, p Payload) (*api.Response, error) {
	start := time.Now()
	endpoint := p.Endpoint()

	if c.telemetry != nil {
		var span trace.Span
		ctx, span = c.telemetry.TraceSend(ctx, endpoint, p.Attachment() != nil)
		defer span.End()
		c.telemetry.RecordCall(ctx, "send")
	}

	fields := map[string]string{
		"token": c.creds.apiToken,
		"user":  c.creds.userKey,
	}
	for k, v := range p.Fields() {
		fields[k] = v
	}

	var req *http.Request
	var err error
	if att := p.Attachment(); att != nil {
		req, err = c.newMultipartRequest(ctx, endpoint, fields, att)
	} else {
		req, err = c.newFormRequest(ctx, endpoint, fields)
	}
	if err != nil {
		c.recordSendOutcome(ctx, endpoint, start, err)
		return nil, err
	}

	resp := &api.Response{}
	status, raw, doErr := c.do(req, resp)
	if raw == nil {
		// No response came back at all
		c.recordSendOutcome(ctx, endpoint, start, doErr)
		return nil, doErr
	}
	resp.HTTPStatus = status
	resp.Raw = raw

	p.SetResponse(resp)
	c.mu.Lock()
	c.lastSent = p
	c.mu.Unlock()

	if doErr == nil && !resp.OK() {
		doErr = errors.New(errors.CodeSendingFailed, errors.CategoryTransport,
			fmt.Sprintf("API rejected the payload: %s", strings.Join(resp.Errors, "; ")))
	}
	c.recordSendOutcome(ctx, endpoint, start, doErr)
	if doErr != nil {
		return resp, doErr
	}

	c.logger.Debug("payload sent", "endpoint", endpoint, "request", resp.Request)
	return resp, nil
}

// Receipt fetches the delivery status of an emergency-priority message.
// With an empty id it falls back to the receipt of the last sent
// payload and fails with an invalid-state error when no qualifying send
// happened. An acknowledged / not-acknowledged line is logged.
func (c *Client) Receipt(ctx context.Context, receiptID string) (*api.ReceiptStatus, error) {
	if c.telemetry != nil {
		var span trace.Span
		ctx, span = c.telemetry.TraceOperation(ctx, "pushover.receipt")
		defer span.End()
		c.telemetry.RecordCall(ctx, "receipt")
	}

	if receiptID == "" {
		c.mu.Lock()
		last := c.lastSent
		c.mu.Unlock()
		if last == nil || last.Response() == nil || last.Response().Receipt == "" {
			return nil, errors.ErrNoReceipt
		}
		receiptID = last.Response().Receipt
	}

	endpoint := fmt.Sprintf(pathReceipts, url.PathEscape(receiptID))
	req, err := c.newGetRequest(ctx, c.baseURL+endpoint)
	if err != nil {
		return nil, err
	}

	var rs api.ReceiptStatus
	if _, _, err := c.do(req, &rs); err != nil {
		return nil, err
	}

	if rs.IsAcknowledged() {
		c.logger.Info("receipt acknowledged", "receipt", receiptID)
	} else {
		c.logger.Info("receipt not acknowledged", "receipt", receiptID)
	}
	return &rs, nil
}

// LastSent returns the payload recorded by the most recent send, or nil.
func (c *Client) LastSent() Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSent
}

// recordSendOutcome reports send metrics when telemetry is configured.
func (c *Client) recordSendOutcome(ctx context.Context, endpoint string, start time.Time, err error) {
	if c.telemetry == nil {
		return
	}
	if err != nil {
		errorType := "transport"
		if perr, ok := err.(*errors.Error); ok {
			errorType = string(perr.Code)
		}
		c.telemetry.RecordFailed(ctx, endpoint, time.Since(start), errorType)
		return
	}
	c.telemetry.RecordSent(ctx, endpoint, time.Since(start))
}

// newGetRequest builds a GET request carrying the token query parameter.
func (c *Client) newGetRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSendingFailed, errors.CategoryTransport, "parse URL", err)
	}
	q := u.Query()
	q.Set("token", c.creds.apiToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSendingFailed, errors.CategoryTransport, "create request", err)
	}
	return req, nil
}

// newFormRequest builds a form-encoded POST request.
func (c *Client) newFormRequest(ctx context.Context, endpoint string, fields map[string]string) (*http.Request, error) {
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(errors.CodeSendingFailed, errors.CategoryTransport, "create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// newMultipartRequest builds a multipart POST uploading the attachment
// file alongside the form fields. The file is read while the body is
// built and closed before the request goes out, on success and failure
// alike.
func (c *Client) newMultipartRequest(ctx context.Context, endpoint string, fields map[string]string, att *message.Attachment) (*http.Request, error) {
	file, err := os.Open(att.Path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeAttachmentMissing, errors.CategoryValidation, "open attachment", err)
	}
	defer func() { _ = file.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, errors.Wrap(errors.CodeSendingFailed, errors.CategoryTransport, "write form field", err)
		}
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="attachment"; filename="%s"`, escapeQuotes(baseName(att.Path))))
	header.Set("Content-Type", att.MIME)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSendingFailed, errors.CategoryTransport, "create attachment part", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, errors.Wrap(errors.CodeSendingFailed, errors.CategoryTransport, "read attachment", err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(errors.CodeSendingFailed, errors.CategoryTransport, "finalize multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSendingFailed, errors.CategoryTransport, "create request", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

// do executes the request and decodes the JSON body into out. It
// returns the HTTP status, the raw body and a categorized error for
// network failures, undecodable bodies and non-2xx statuses.
func (c *Client) do(req *http.Request, out any) (int, []byte, error) {
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.MapNetworkError(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return httpResp.StatusCode, nil, errors.Wrap(errors.CodeNetworkError, errors.CategoryNetwork, "read response body", err)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			if httpResp.StatusCode >= 400 {
				return httpResp.StatusCode, raw, errors.MapHTTPError(httpResp.StatusCode, string(raw))
			}
			return httpResp.StatusCode, raw, errors.Wrap(errors.CodeDecodeFailed, errors.CategoryTransport, "decode API response", err)
		}
	}

	if httpResp.StatusCode >= 400 {
		return httpResp.StatusCode, raw, errors.MapHTTPError(httpResp.StatusCode, string(raw))
	}
	return httpResp.StatusCode, raw, nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
