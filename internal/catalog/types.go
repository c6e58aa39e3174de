package catalog

import (
	"bytes"
	"encoding/json"
	"html"
	"strconv"

	"github.com/kindleget/kindle-downloader/internal/model"
)

// ownershipParam is the listing request payload. Field names are the wire
// contract of the remote API.
type ownershipParam struct {
	SortOrder   string   `json:"sortOrder"`
	SortIndex   string   `json:"sortIndex"`
	StartIndex  int      `json:"startIndex"`
	BatchSize   int      `json:"batchSize"`
	ContentType string   `json:"contentType"`
	ItemStatus  []string `json:"itemStatus"`

	// Books only.
	OriginType []string `json:"originType,omitempty"`

	// Personal documents only.
	IsExtendedMYK *bool `json:"isExtendedMYK,omitempty"`
}

func newOwnershipParam(class model.ItemClass, startIndex int) ownershipParam {
	p := ownershipParam{
		SortOrder:   "DESCENDING",
		SortIndex:   "DATE",
		StartIndex:  startIndex,
		BatchSize:   class.BatchSize(),
		ContentType: class.ContentType(),
		ItemStatus:  []string{"Active"},
	}
	if class == model.ItemClassPersonalDocument {
		extended := false
		p.IsExtendedMYK = &extended
	} else {
		p.OriginType = []string{"Purchase"}
	}
	return p
}

// listResponse is the tagged listing reply: either entries plus a
// continuation indicator, or an error with a kind.
type listResponse struct {
	Success       *bool          `json:"success"`
	Error         string         `json:"error"`
	OwnershipData *ownershipData `json:"OwnershipData"`
}

type ownershipData struct {
	Items         []wireItem `json:"items"`
	NumberOfItems int        `json:"numberOfItems"`
	HasMoreItems  bool       `json:"hasMoreItems"`
}

type wireItem struct {
	ASIN         string  `json:"asin"`
	Title        string  `json:"title"`
	Authors      string  `json:"authors"`
	Author       string  `json:"author"` // personal documents use the singular key
	AcquiredDate string  `json:"acquiredDate"`
	ReadStatus   string  `json:"readStatus"`
	FileSize     flexInt `json:"fileSize"`
}

// toEntry converts a wire item into a domain entry. Personal document
// titles arrive HTML-escaped.
func (w wireItem) toEntry(class model.ItemClass) model.CatalogEntry {
	title := w.Title
	authors := w.Authors
	if class == model.ItemClassPersonalDocument {
		title = html.UnescapeString(title)
		if authors == "" {
			authors = html.UnescapeString(w.Author)
		}
	}
	return model.CatalogEntry{
		ID:          w.ASIN,
		Title:       title,
		Authors:     authors,
		Class:       class,
		AcquiredAt:  w.AcquiredDate,
		ResourceRef: w.ASIN,
		SizeHint:    int64(w.FileSize),
		ReadStatus:  w.ReadStatus,
	}
}

// devicesResponse is the device registry reply.
type devicesResponse struct {
	Error      string `json:"error"`
	GetDevices *struct {
		Devices []Device `json:"devices"`
	} `json:"GetDevices"`
}

// Device is one registered reader device. Its serial doubles as the
// decryption key for content bound to it.
type Device struct {
	Serial     string `json:"deviceSerialNumber"`
	Type       string `json:"deviceType"`
	CustomerID string `json:"customerId"`
	Name       string `json:"deviceAccountName"`
}

// flexInt tolerates the listing API reporting sizes both as numbers and as
// quoted strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

var _ json.Unmarshaler = (*flexInt)(nil)
