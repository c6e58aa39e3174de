package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kindleget/kindle-downloader/internal/config"
	"github.com/kindleget/kindle-downloader/internal/errs"
	"github.com/kindleget/kindle-downloader/internal/logger"
	"github.com/kindleget/kindle-downloader/internal/model"
	"github.com/kindleget/kindle-downloader/internal/session"
)

const (
	// throttleRetries is how many times a throttled page request is retried
	// before the failure is surfaced.
	throttleRetries = 3

	// throttleBaseSleep grows by throttleStepSleep per retry.
	throttleBaseSleep = 5 * time.Second
	throttleStepSleep = 2 * time.Second

	// defaultExtension is used when the payload response carries no usable
	// file name.
	defaultExtension = ".azw3"
)

// contentDispositionRe extracts the remote file name from the payload
// response headers.
var contentDispositionRe = regexp.MustCompile(`filename\*=UTF-8''(.+)`)

// Options tunes a catalog client.
type Options struct {
	Timeout   time.Duration
	MaxPages  int
	PageDelay time.Duration
}

// Client wraps the remote listing API for one session.
type Client struct {
	http      *http.Client
	sess      *session.Context
	endpoints config.Endpoints
	limiter   *rate.Limiter
	maxPages  int
	log       *logger.Logger

	// throttle backoff, overridable in tests
	throttleBase time.Duration
	throttleStep time.Duration

	device *Device
}

// NewClient creates a catalog client bound to a session.
func NewClient(sess *session.Context, endpoints config.Endpoints, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultHTTPTimeout
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = config.DefaultMaxPages
	}
	if opts.PageDelay <= 0 {
		opts.PageDelay = config.DefaultPageDelay
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		sess:      sess,
		endpoints: endpoints,
		limiter:   rate.NewLimiter(rate.Every(opts.PageDelay), 1),
		maxPages:  opts.MaxPages,
		log:       logger.New("catalog"),

		throttleBase: throttleBaseSleep,
		throttleStep: throttleStepSleep,
	}
}

// HTTPClient exposes the shared client so the CSRF probe reuses the same
// timeout policy.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// FetchAll pages through the listing until the remote signals no further
// pages, returning the full catalog in page-delivery order. Pagination is
// capped at MaxPages against a malformed continuation indicator.
func (c *Client) FetchAll(ctx context.Context, class model.ItemClass) ([]model.CatalogEntry, error) {
	if class == model.ItemClassPersonalDocument {
		c.log.Info().Msg("listing personal documents; the remote pages these slowly")
	}

	var entries []model.CatalogEntry
	startIndex := 0

	for page := 0; page < c.maxPages; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, err := c.listPage(ctx, class, startIndex)
		if err != nil {
			return nil, fmt.Errorf("list page at index %d: %w", startIndex, err)
		}

		for _, item := range data.Items {
			entries = append(entries, item.toEntry(class))
		}
		c.log.Debug().
			Int("start_index", startIndex).
			Int("total", data.NumberOfItems).
			Int("fetched", len(entries)).
			Msg("listing page fetched")

		if !data.HasMoreItems {
			return entries, nil
		}
		// Advance by what was delivered; short pages are the remote's call.
		startIndex += len(data.Items)
	}

	return nil, &errs.RemoteError{
		Reason:  errs.RemoteMalformed,
		Message: fmt.Sprintf("pagination did not terminate within %d pages", c.maxPages),
	}
}

// listPage fetches one listing page, retrying throttle responses with a
// growing sleep before giving up.
func (c *Client) listPage(ctx context.Context, class model.ItemClass, startIndex int) (*ownershipData, error) {
	param := newOwnershipParam(class, startIndex)

	var lastErr error
	for attempt := 0; attempt <= throttleRetries; attempt++ {
		if attempt > 0 {
			sleep := c.throttleBase + time.Duration(attempt-1)*c.throttleStep
			c.log.Warn().
				Dur("sleep", sleep).
				Int("attempt", attempt).
				Int("start_index", startIndex).
				Msg("remote throttled the listing, backing off")
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var resp listResponse
		err := c.postPayload(ctx, map[string]any{"OwnershipData": param}, &resp)
		if err != nil {
			if errs.IsRateLimited(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		if resp.Error != "" || (resp.Success != nil && !*resp.Success) {
			return nil, &errs.AuthError{
				Reason:  errs.AuthSessionExpired,
				Message: fmt.Sprintf("listing rejected: %s", resp.Error),
			}
		}
		if resp.OwnershipData == nil {
			return nil, &errs.RemoteError{Reason: errs.RemoteMalformed, Message: "listing reply carries no ownership data"}
		}
		return resp.OwnershipData, nil
	}
	return nil, lastErr
}

// Devices fetches the account's device registry.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var resp devicesResponse
	if err := c.postPayload(ctx, map[string]any{"GetDevices": struct{}{}}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &errs.AuthError{
			Reason:  errs.AuthSessionExpired,
			Message: fmt.Sprintf("device lookup rejected: %s", resp.Error),
		}
	}
	if resp.GetDevices == nil {
		return nil, &errs.RemoteError{Reason: errs.RemoteMalformed, Message: "device reply carries no registry"}
	}

	devices := make([]Device, 0, len(resp.GetDevices.Devices))
	for _, d := range resp.GetDevices.Devices {
		if d.Serial != "" {
			devices = append(devices, d)
		}
	}
	return devices, nil
}

// SelectDevice picks the device downloads are keyed to: the one matching
// serial when given, the first registered device otherwise.
func (c *Client) SelectDevice(ctx context.Context, serial string) (Device, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return Device{}, err
	}
	if len(devices) == 0 {
		return Device{}, &errs.RemoteError{Reason: errs.RemoteNotFound, Message: "no devices are bound to this account"}
	}

	serial = strings.TrimSpace(serial)
	if serial != "" {
		for _, d := range devices {
			if d.Serial == serial {
				c.device = &d
				return d, nil
			}
		}
		c.log.Warn().Str("serial", serial).Msg("no device with that serial, using the first registered device")
	}

	c.device = &devices[0]
	return devices[0], nil
}

// Fetch requests the binary payload for an entry using the selected device.
// Implements the executor's Fetcher contract.
func (c *Client) Fetch(ctx context.Context, entry model.CatalogEntry) (io.ReadCloser, model.FetchInfo, error) {
	if c.device == nil {
		return nil, model.FetchInfo{}, errors.New("catalog: no device selected before fetch")
	}

	downloadURL := fmt.Sprintf(c.endpoints.Download,
		entry.Class, entry.ResourceRef, c.device.Serial, c.device.Type, c.device.CustomerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, model.FetchInfo{}, fmt.Errorf("build download request: %w", err)
	}
	c.sess.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, model.FetchInfo{}, classifyTransport(downloadURL, err)
	}
	if err := classifyStatus(resp); err != nil {
		resp.Body.Close()
		return nil, model.FetchInfo{}, err
	}

	return resp.Body, model.FetchInfo{
		Extension: extensionFromHeaders(resp),
		Size:      resp.ContentLength,
	}, nil
}

// postPayload issues the form-encoded API call every listing operation
// shares: a JSON "param" document plus the session CSRF token.
func (c *Client) postPayload(ctx context.Context, param map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{"param": param})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	form := url.Values{
		"data":      {string(payload)},
		"csrfToken": {c.sess.CSRFToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.Payload, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build payload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.sess.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(c.endpoints.Payload, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransport(c.endpoints.Payload, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &errs.RemoteError{Reason: errs.RemoteMalformed, Message: fmt.Sprintf("decode listing reply: %v", err)}
	}
	return nil
}

// classifyStatus converts a non-success HTTP response into the error
// taxonomy. Auth redirects to the sign-in page count as expiry: the remote
// answers 200 after bouncing an expired session there.
func classifyStatus(resp *http.Response) error {
	if resp.Request != nil && resp.Request.URL != nil &&
		strings.Contains(resp.Request.URL.Path, "/ap/signin") {
		return &errs.AuthError{Reason: errs.AuthSessionExpired, Message: "redirected to sign-in page"}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &errs.AuthError{Reason: errs.AuthSessionExpired, Message: fmt.Sprintf("remote returned status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		return &errs.RemoteError{Reason: errs.RemoteNotFound, StatusCode: resp.StatusCode, Message: "resource not found"}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return &errs.RemoteError{Reason: errs.RemoteRateLimited, StatusCode: resp.StatusCode, Message: "automated access throttled"}
	case resp.StatusCode >= 400:
		return &errs.RemoteError{Reason: errs.RemoteMalformed, StatusCode: resp.StatusCode, Message: "unexpected status"}
	}
	return nil
}

// classifyTransport converts a transport failure into the error taxonomy.
func classifyTransport(requestURL string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &errs.NetworkError{Reason: errs.NetworkTimeout, URL: requestURL, Err: err}
	}
	return &errs.NetworkError{Reason: errs.NetworkConnectionFailed, URL: requestURL, Err: err}
}

// extensionFromHeaders derives the output extension from the payload's
// Content-Disposition, falling back to the usual container format.
func extensionFromHeaders(resp *http.Response) string {
	m := contentDispositionRe.FindStringSubmatch(resp.Header.Get("Content-Disposition"))
	if m == nil {
		return defaultExtension
	}
	name, err := url.PathUnescape(m[1])
	if err != nil {
		name = m[1]
	}
	if ext := filepath.Ext(name); ext != "" {
		return ext
	}
	return defaultExtension
}
