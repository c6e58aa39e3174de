package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindleget/kindle-downloader/internal/errs"
	"github.com/kindleget/kindle-downloader/internal/model"
)

func TestSetCookieString(t *testing.T) {
	sess := New(model.MarketplaceUS)

	err := sess.SetCookieString("session-id=123-456; ubid-main=abc; at-main=token")
	require.NoError(t, err)

	assert.Equal(t, "123-456", sess.Cookies["session-id"])
	assert.Equal(t, "abc", sess.Cookies["ubid-main"])
	assert.Equal(t, "token", sess.Cookies["at-main"])
	assert.True(t, sess.HasCookies())
}

func TestSetCookieString_Empty(t *testing.T) {
	sess := New(model.MarketplaceUS)

	err := sess.SetCookieString("   ;  ; ")
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
	assert.False(t, sess.HasCookies())
}

func TestApply(t *testing.T) {
	sess := New(model.MarketplaceUS)
	require.NoError(t, sess.SetCookieString("session-id=123"))

	req, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
	require.NoError(t, err)
	sess.Apply(req)

	assert.Equal(t, UserAgent, req.Header.Get("User-Agent"))
	assert.Contains(t, req.Header.Get("Cookie"), "session-id=123")
}

func TestPersistRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	sess := New(model.MarketplaceJP)
	require.NoError(t, sess.SetCookieString("session-id=123; at-main=tok"))
	sess.CSRFToken = "gB4xyz"
	sess.DeviceSerial = "G000X1"

	require.NoError(t, sess.Persist(path))

	restored, err := Restore(path)
	require.NoError(t, err)
	require.NotNil(t, restored)

	assert.Equal(t, sess.Cookies, restored.Cookies)
	assert.Equal(t, "gB4xyz", restored.CSRFToken)
	assert.Equal(t, model.MarketplaceJP, restored.Marketplace)
	assert.Equal(t, "G000X1", restored.DeviceSerial)
}

func TestRestore_MissingFile(t *testing.T) {
	restored, err := Restore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestEnsureCSRFToken(t *testing.T) {
	page := `<html><head><script>var other = 1;</script></head><body>
<script>
  var preload = {};
  var csrfToken = "gBhRya1kkkNN0123456789";
  var more = true;
</script></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	sess := New(model.MarketplaceUS)
	err := sess.EnsureCSRFToken(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "gBhRya1kkkNN0123456789", sess.CSRFToken)
}

func TestEnsureCSRFToken_MarkerAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><script>var nothing = 1;</script></body></html>`))
	}))
	defer srv.Close()

	sess := New(model.MarketplaceUS)
	err := sess.EnsureCSRFToken(context.Background(), srv.Client(), srv.URL)
	require.Error(t, err)

	assert.True(t, errs.IsAuth(err))
	assert.False(t, errs.IsSessionExpired(err))
}

func TestEnsureCSRFToken_AlreadySet(t *testing.T) {
	sess := New(model.MarketplaceUS)
	sess.CSRFToken = "existing"

	// No server: the probe must not be issued when a token is present.
	err := sess.EnsureCSRFToken(context.Background(), http.DefaultClient, "http://127.0.0.1:0")
	require.NoError(t, err)
	assert.Equal(t, "existing", sess.CSRFToken)
}

func TestNoBrowserExtractor(t *testing.T) {
	sess := New(model.MarketplaceUS)
	err := sess.LoadFromBrowser(NoBrowserExtractor{})
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
}
