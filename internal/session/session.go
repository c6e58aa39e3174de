package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/kindleget/kindle-downloader/internal/errs"
	"github.com/kindleget/kindle-downloader/internal/model"
	"github.com/kindleget/kindle-downloader/internal/platform"
)

// UserAgent is sent on every request. A desktop browser string: the listing
// API serves the same pages a signed-in browser session sees.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Context is the authentication material for one run. The marketplace is
// fixed for the context's lifetime; switching marketplaces requires a new
// session.
type Context struct {
	Cookies      map[string]string
	CSRFToken    string
	Marketplace  model.Marketplace
	DeviceSerial string
}

// New creates an empty session bound to a marketplace.
func New(marketplace model.Marketplace) *Context {
	return &Context{
		Cookies:     make(map[string]string),
		Marketplace: marketplace,
	}
}

// SetCookieString parses a browser-style cookie header ("k=v; k2=v2") into
// the session cookie set, replacing any previous cookies.
func (c *Context) SetCookieString(raw string) error {
	cookies := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		cookies[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	if len(cookies) == 0 {
		return &errs.AuthError{Reason: errs.AuthMissingCredentials, Message: "no cookies parsed from value"}
	}
	c.Cookies = cookies
	return nil
}

// LoadCookieFile reads a cookie header from a local file.
func (c *Context) LoadCookieFile(path string) error {
	data, err := os.ReadFile(platform.ExpandHome(path))
	if err != nil {
		return &errs.AuthError{Reason: errs.AuthMissingCredentials, Message: fmt.Sprintf("read cookie file: %v", err)}
	}
	return c.SetCookieString(strings.TrimSpace(string(data)))
}

// LoadFromBrowser fills the cookie set from a browser-extraction capability.
func (c *Context) LoadFromBrowser(extractor BrowserExtractor) error {
	cookies, err := extractor.Cookies(c.Marketplace)
	if err != nil {
		return &errs.AuthError{Reason: errs.AuthMissingCredentials, Message: fmt.Sprintf("browser extraction: %v", err)}
	}
	if len(cookies) == 0 {
		return &errs.AuthError{Reason: errs.AuthMissingCredentials, Message: "browser extraction yielded no cookies"}
	}
	c.Cookies = cookies
	return nil
}

// HasCookies reports whether any credential material is loaded.
func (c *Context) HasCookies() bool {
	return len(c.Cookies) > 0
}

// CookieHeader renders the cookie set as a request header value.
func (c *Context) CookieHeader() string {
	parts := make([]string, 0, len(c.Cookies))
	for name, value := range c.Cookies {
		parts = append(parts, name+"="+value)
	}
	return strings.Join(parts, "; ")
}

// Apply stamps the session credentials onto an outgoing request.
func (c *Context) Apply(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent)
	if len(c.Cookies) > 0 {
		req.Header.Set("Cookie", c.CookieHeader())
	}
}

// persisted is the on-disk shape of a session dump.
type persisted struct {
	Cookies      map[string]string `json:"cookies"`
	CSRFToken    string            `json:"csrf_token,omitempty"`
	Marketplace  model.Marketplace `json:"marketplace"`
	DeviceSerial string            `json:"device_serial,omitempty"`
}

// Persist writes the whole session to path for reuse across runs.
func (c *Context) Persist(path string) error {
	data, err := json.MarshalIndent(persisted{
		Cookies:      c.Cookies,
		CSRFToken:    c.CSRFToken,
		Marketplace:  c.Marketplace,
		DeviceSerial: c.DeviceSerial,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(platform.ExpandHome(path), data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Restore loads a previously persisted session. A missing file is not an
// error; it returns (nil, nil) so callers fall through to fresh credentials.
func Restore(path string) (*Context, error) {
	data, err := os.ReadFile(platform.ExpandHome(path))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if p.Cookies == nil {
		p.Cookies = make(map[string]string)
	}
	return &Context{
		Cookies:      p.Cookies,
		CSRFToken:    p.CSRFToken,
		Marketplace:  p.Marketplace,
		DeviceSerial: p.DeviceSerial,
	}, nil
}
