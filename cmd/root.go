package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kindleget/kindle-downloader/internal/config"
	"github.com/kindleget/kindle-downloader/internal/model"
)

// NewRootCmd builds the CLI. The positional argument overrides the CSRF
// token; everything else is flags with environment-backed defaults.
func NewRootCmd() *cobra.Command {
	settings := config.Default()
	var (
		marketplace string
		pdoc        bool
	)

	cmd := &cobra.Command{
		Use:   "kindle-downloader [csrf-token]",
		Short: "Download your purchased books and pushed documents from your Kindle library",
		Long: `kindle-downloader lists the books and personal documents tied to your
account and downloads them to local files, resumable by catalog index.

Credentials come from a browser cookie string (--cookie or --cookie-file);
the session is persisted between runs so cookies only need supplying once.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				settings.CSRFToken = args[0]
			}

			mp := model.Marketplace(marketplace)
			if !mp.Valid() {
				return fmt.Errorf("unknown marketplace %q (us, cn, jp, de, uk)", marketplace)
			}
			settings.Marketplace = mp

			if pdoc {
				settings.Class = model.ItemClassPersonalDocument
			}
			if settings.Mode != config.ModeAll && settings.Mode != config.ModeSel {
				return fmt.Errorf("unknown mode %q (all, sel)", settings.Mode)
			}

			return run(cmd.Context(), settings, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&settings.Cookie, "cookie", "", "browser cookie header value")
	flags.StringVar(&settings.CookieFile, "cookie-file", "", "path to a file holding the cookie header")
	flags.StringVar(&marketplace, "marketplace", string(model.MarketplaceUS), "store marketplace: us, cn, jp, de, uk")
	flags.BoolVar(&pdoc, "pdoc", false, "list and download personal documents instead of books")
	flags.IntVar(&settings.ResumeFrom, "resume-from", 0, "skip entries before this 1-based catalog index")
	flags.IntVar(&settings.CutLength, "cut-length", settings.CutLength, "truncate file names to this many characters")
	flags.BoolVar(&settings.ResolveDuplicates, "resolve-duplicate-names", false, "append a numeric suffix to repeated titles")
	flags.StringVarP(&settings.OutDir, "outdir", "o", settings.OutDir, "download directory")
	flags.StringVar(&settings.DedrmDir, "outdedrmdir", settings.DedrmDir, "decrypted output directory")
	flags.StringVarP(&settings.SessionFile, "session-file", "s", settings.SessionFile, "session persistence path")
	flags.BoolVar(&settings.ListOnly, "list", false, "print the catalog and exit without downloading")
	flags.StringVar(&settings.Mode, "mode", settings.Mode, "all: download everything; sel: pick indices interactively")
	flags.StringVar(&settings.DeviceSerial, "device-sn", "", "serial of the device downloads are keyed to")
	flags.BoolVar(&settings.Dedrm, "dedrm", false, "decrypt each download with the configured tool")
	flags.BoolVar(&settings.Readme, "readme", false, "generate the stats markdown instead of downloading")
	flags.IntVar(&settings.Workers, "workers", settings.Workers, "concurrent downloads (bounded)")

	cmd.MarkFlagsMutuallyExclusive("cookie", "cookie-file")

	return cmd
}
