package config

import (
	"os"
	"strconv"
	"time"

	"github.com/kindleget/kindle-downloader/internal/model"
)

// Default values
const (
	DefaultOutDir      = "DOWNLOADS"
	DefaultDedrmDir    = "DEDRMS"
	DefaultSessionFile = ".kindle_session.json"
	DefaultOutcomeLog  = ".error_books.log"
	DefaultStatsFile   = "my_kindle_stats.md"

	DefaultCutLength = 100
	DefaultWorkers   = 1
	MaxWorkers       = 4

	// DefaultHTTPTimeout bounds every remote call; a timed-out call is a
	// retryable network error, never a silent hang.
	DefaultHTTPTimeout = 180 * time.Second

	// DefaultMaxPages caps catalog pagination against a malformed
	// continuation indicator.
	DefaultMaxPages = 500

	// DefaultPageDelay is the minimum spacing between listing page requests.
	// The remote applies automated-access risk controls; pacing requests is
	// cheaper than handling the resulting throttle responses.
	DefaultPageDelay = 500 * time.Millisecond

	// DefaultDownloadDelay is the minimum spacing between payload fetches.
	DefaultDownloadDelay = time.Second
)

// Mode selects how pending tasks are chosen.
const (
	ModeAll = "all"
	ModeSel = "sel"
)

// Settings is the full run configuration, assembled by the CLI from flags
// with environment fallbacks.
type Settings struct {
	Marketplace  model.Marketplace
	Class        model.ItemClass
	CSRFToken    string
	Cookie       string
	CookieFile   string
	DeviceSerial string

	OutDir      string
	DedrmDir    string
	SessionFile string
	OutcomeLog  string
	StatsFile   string

	CutLength         int
	ResolveDuplicates bool
	ResumeFrom        int
	Mode              string
	ListOnly          bool
	Dedrm             bool
	Readme            bool

	Workers       int
	HTTPTimeout   time.Duration
	MaxPages      int
	PageDelay     time.Duration
	DownloadDelay time.Duration
}

// Default returns settings with defaults applied, honouring environment
// overrides for paths and tuning knobs.
func Default() Settings {
	return Settings{
		Marketplace: model.MarketplaceUS,
		Class:       model.ItemClassBook,

		OutDir:      getenv("KINDLE_OUT_DIR", DefaultOutDir),
		DedrmDir:    getenv("KINDLE_DEDRM_DIR", DefaultDedrmDir),
		SessionFile: getenv("KINDLE_SESSION_FILE", DefaultSessionFile),
		OutcomeLog:  getenv("KINDLE_OUTCOME_LOG", DefaultOutcomeLog),
		StatsFile:   DefaultStatsFile,

		CutLength: DefaultCutLength,
		Mode:      ModeAll,

		Workers:       getenvInt("KINDLE_WORKERS", DefaultWorkers),
		HTTPTimeout:   DefaultHTTPTimeout,
		MaxPages:      getenvInt("KINDLE_MAX_PAGES", DefaultMaxPages),
		PageDelay:     DefaultPageDelay,
		DownloadDelay: DefaultDownloadDelay,
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
