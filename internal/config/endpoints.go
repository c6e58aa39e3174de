package config

import "github.com/kindleget/kindle-downloader/internal/model"

// Endpoints holds the per-marketplace URL set the catalog client talks to.
// The download URL is shared across storefronts save for the auth pool
// qualifier; the listing endpoints live on the regional domain.
type Endpoints struct {
	// Library is the content listing page; the CSRF probe fetches it.
	Library string

	// Payload is the listing API endpoint paged through for the catalog.
	Payload string

	// Download is the binary payload endpoint. Format verbs: item class,
	// resource ref, device serial, device type, customer id.
	Download string

	// ItemURL links an item id on the storefront, for stats output.
	ItemURL string
}

const downloadBase = "https://cde-ta-g7g.amazon.com/FionaCDEServiceEngine/FSDownloadContent?type=%s&key=%s&fsn=%s&device_type=%s&customerId=%s"

var endpointsByMarketplace = map[model.Marketplace]Endpoints{
	model.MarketplaceUS: {
		Library:  "https://www.amazon.com/hz/mycd/myx#/home/content/booksAll",
		Payload:  "https://www.amazon.com/hz/mycd/ajax",
		Download: downloadBase + "&authPool=Amazon",
		ItemURL:  "https://www.amazon.com/dp/%s",
	},
	model.MarketplaceCN: {
		Library:  "https://www.amazon.cn/hz/mycd/myx#/home/content/booksAll",
		Payload:  "https://www.amazon.cn/hz/mycd/ajax",
		Download: downloadBase + "&authPool=AmazonCN",
		ItemURL:  "https://www.amazon.cn/dp/%s",
	},
	model.MarketplaceJP: {
		Library:  "https://www.amazon.co.jp/hz/mycd/myx#/home/content/booksAll",
		Payload:  "https://www.amazon.co.jp/hz/mycd/ajax",
		Download: downloadBase,
		ItemURL:  "https://www.amazon.co.jp/dp/%s",
	},
	model.MarketplaceDE: {
		Library:  "https://www.amazon.de/hz/mycd/myx#/home/content/booksAll",
		Payload:  "https://www.amazon.de/hz/mycd/ajax",
		Download: downloadBase,
		ItemURL:  "https://www.amazon.de/dp/%s",
	},
	model.MarketplaceUK: {
		Library:  "https://www.amazon.co.uk/hz/mycd/myx#/home/content/booksAll",
		Payload:  "https://www.amazon.co.uk/hz/mycd/ajax",
		Download: downloadBase,
		ItemURL:  "https://www.amazon.co.uk/dp/%s",
	},
}

// EndpointsFor returns the endpoint set for a marketplace. Unknown
// marketplaces fall back to the US storefront.
func EndpointsFor(m model.Marketplace) Endpoints {
	if e, ok := endpointsByMarketplace[m]; ok {
		return e
	}
	return endpointsByMarketplace[model.MarketplaceUS]
}
