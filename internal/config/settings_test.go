package config

import (
	"strings"
	"testing"

	"github.com/kindleget/kindle-downloader/internal/model"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.OutDir != DefaultOutDir {
		t.Errorf("Expected out dir %s, got %s", DefaultOutDir, cfg.OutDir)
	}
	if cfg.DedrmDir != DefaultDedrmDir {
		t.Errorf("Expected dedrm dir %s, got %s", DefaultDedrmDir, cfg.DedrmDir)
	}
	if cfg.Marketplace != model.MarketplaceUS {
		t.Errorf("Expected default marketplace us, got %s", cfg.Marketplace)
	}
	if cfg.Class != model.ItemClassBook {
		t.Errorf("Expected default class EBOK, got %s", cfg.Class)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Expected default workers %d, got %d", DefaultWorkers, cfg.Workers)
	}
	if cfg.Mode != ModeAll {
		t.Errorf("Expected default mode %s, got %s", ModeAll, cfg.Mode)
	}
}

func TestDefault_EnvOverrides(t *testing.T) {
	t.Setenv("KINDLE_OUT_DIR", "/tmp/books")
	t.Setenv("KINDLE_WORKERS", "3")
	t.Setenv("KINDLE_MAX_PAGES", "not-a-number")

	cfg := Default()

	if cfg.OutDir != "/tmp/books" {
		t.Errorf("Expected env out dir /tmp/books, got %s", cfg.OutDir)
	}
	if cfg.Workers != 3 {
		t.Errorf("Expected env workers 3, got %d", cfg.Workers)
	}
	if cfg.MaxPages != DefaultMaxPages {
		t.Errorf("Invalid env int should fall back to %d, got %d", DefaultMaxPages, cfg.MaxPages)
	}
}

func TestEndpointsFor(t *testing.T) {
	tests := []struct {
		marketplace model.Marketplace
		domain      string
	}{
		{model.MarketplaceUS, "www.amazon.com"},
		{model.MarketplaceCN, "www.amazon.cn"},
		{model.MarketplaceJP, "www.amazon.co.jp"},
		{model.MarketplaceDE, "www.amazon.de"},
		{model.MarketplaceUK, "www.amazon.co.uk"},
	}

	for _, test := range tests {
		eps := EndpointsFor(test.marketplace)
		if !strings.Contains(eps.Payload, test.domain) {
			t.Errorf("EndpointsFor(%s).Payload = %s, expected domain %s", test.marketplace, eps.Payload, test.domain)
		}
		if !strings.Contains(eps.Library, test.domain) {
			t.Errorf("EndpointsFor(%s).Library = %s, expected domain %s", test.marketplace, eps.Library, test.domain)
		}
	}
}

func TestEndpointsFor_UnknownFallsBack(t *testing.T) {
	eps := EndpointsFor(model.Marketplace("fr"))
	if !strings.Contains(eps.Payload, "www.amazon.com") {
		t.Errorf("Unknown marketplace should fall back to US, got %s", eps.Payload)
	}
}
