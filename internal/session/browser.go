package session

import (
	"errors"

	"github.com/kindleget/kindle-downloader/internal/model"
)

// BrowserExtractor reads signed-in storefront cookies out of a local
// browser profile. The concrete extraction lives outside this module; the
// engine only consumes the capability.
type BrowserExtractor interface {
	Cookies(marketplace model.Marketplace) (map[string]string, error)
}

// ErrNoExtractor is returned by the default extractor; operators supply
// cookies explicitly when no extraction capability is wired in.
var ErrNoExtractor = errors.New("session: no browser cookie extractor available")

// NoBrowserExtractor is the default, always-unavailable capability.
type NoBrowserExtractor struct{}

func (NoBrowserExtractor) Cookies(model.Marketplace) (map[string]string, error) {
	return nil, ErrNoExtractor
}
