package model

// ItemClass selects which remote catalog is listed: purchased books or
// personal documents pushed to the account.
type ItemClass string

const (
	// ItemClassBook lists purchased e-books.
	ItemClassBook ItemClass = "EBOK"

	// ItemClassPersonalDocument lists user-uploaded documents.
	ItemClassPersonalDocument ItemClass = "PDOC"
)

// String returns the string representation of ItemClass
func (c ItemClass) String() string {
	return string(c)
}

// ContentType returns the content type name the listing API expects for the class.
func (c ItemClass) ContentType() string {
	if c == ItemClassPersonalDocument {
		return "KindlePDoc"
	}
	return "Ebook"
}

// BatchSize returns the page size the listing API accepts for the class.
// Personal document listings reject the larger book batch size.
func (c ItemClass) BatchSize() int {
	if c == ItemClassPersonalDocument {
		return 18
	}
	return 100
}

// Marketplace identifies the regional storefront a session is bound to.
// It is fixed for the lifetime of a run; switching marketplaces requires
// a new session.
type Marketplace string

const (
	MarketplaceUS Marketplace = "us"
	MarketplaceCN Marketplace = "cn"
	MarketplaceJP Marketplace = "jp"
	MarketplaceDE Marketplace = "de"
	MarketplaceUK Marketplace = "uk"
)

// String returns the string representation of Marketplace
func (m Marketplace) String() string {
	return string(m)
}

// Valid reports whether the marketplace is one of the supported storefronts.
func (m Marketplace) Valid() bool {
	switch m {
	case MarketplaceUS, MarketplaceCN, MarketplaceJP, MarketplaceDE, MarketplaceUK:
		return true
	}
	return false
}

// CatalogEntry is one remotely stored item. The catalog order is the remote
// delivery order and must be preserved: later pipeline stages index into it.
type CatalogEntry struct {
	ID          string    // opaque remote identifier (ASIN or document id)
	Title       string
	Authors     string
	Class       ItemClass
	AcquiredAt  string // remote-formatted acquisition date, kept verbatim
	ResourceRef string // opaque token used to request the binary payload
	SizeHint    int64  // bytes, 0 if the listing did not report a size
	ReadStatus  string
}

// DisplayTitle returns the title, falling back to the remote identifier for
// entries the listing returned without one.
func (e *CatalogEntry) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return e.ID
}
