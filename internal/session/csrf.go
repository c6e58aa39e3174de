package session

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kindleget/kindle-downloader/internal/errs"
)

// csrfTokenRe matches the inline token assignment on the library page.
var csrfTokenRe = regexp.MustCompile(`var csrfToken = "(.+?)";`)

// EnsureCSRFToken derives a CSRF token from the library page when none was
// supplied. A missing token marker is a recoverable condition: the caller
// prompts the operator for manual entry instead of crashing.
func (c *Context) EnsureCSRFToken(ctx context.Context, client *http.Client, libraryURL string) error {
	if c.CSRFToken != "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, libraryURL, nil)
	if err != nil {
		return fmt.Errorf("build csrf probe: %w", err)
	}
	c.Apply(req)

	resp, err := client.Do(req)
	if err != nil {
		return &errs.NetworkError{Reason: errs.NetworkConnectionFailed, URL: libraryURL, Err: err}
	}
	defer resp.Body.Close()

	token, err := extractCSRFToken(resp)
	if err != nil {
		return err
	}
	c.CSRFToken = token
	return nil
}

// extractCSRFToken scans the page's script nodes for the token assignment.
func extractCSRFToken(resp *http.Response) (string, error) {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &errs.AuthError{Reason: errs.AuthCsrfUnavailable, Message: fmt.Sprintf("parse library page: %v", err)}
	}

	var token string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "csrfToken") {
			return true
		}
		if m := csrfTokenRe.FindStringSubmatch(text); m != nil {
			token = m[1]
			return false
		}
		return true
	})

	if token == "" {
		return "", &errs.AuthError{
			Reason:  errs.AuthCsrfUnavailable,
			Message: "token marker not found on library page; refresh the page in a browser and supply the token manually",
		}
	}
	return token, nil
}
