package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kindleget/kindle-downloader/internal/catalog"
	"github.com/kindleget/kindle-downloader/internal/config"
	"github.com/kindleget/kindle-downloader/internal/dedrm"
	"github.com/kindleget/kindle-downloader/internal/download"
	"github.com/kindleget/kindle-downloader/internal/errs"
	"github.com/kindleget/kindle-downloader/internal/logger"
	"github.com/kindleget/kindle-downloader/internal/model"
	"github.com/kindleget/kindle-downloader/internal/naming"
	"github.com/kindleget/kindle-downloader/internal/outcome"
	"github.com/kindleget/kindle-downloader/internal/planner"
	"github.com/kindleget/kindle-downloader/internal/session"
	"github.com/kindleget/kindle-downloader/internal/stats"
)

// errSelectionAborted signals the operator quit the selection prompt.
var errSelectionAborted = errors.New("selection aborted")

func run(ctx context.Context, settings config.Settings, in io.Reader, out io.Writer) error {
	log := logger.New("cli")

	sess, err := buildSession(settings, log)
	if err != nil {
		return err
	}

	endpoints := config.EndpointsFor(settings.Marketplace)
	client := catalog.NewClient(sess, endpoints, catalog.Options{
		Timeout:   settings.HTTPTimeout,
		MaxPages:  settings.MaxPages,
		PageDelay: settings.PageDelay,
	})

	if err := ensureCSRF(ctx, sess, client, endpoints.Library, in, out); err != nil {
		return err
	}
	if err := sess.Persist(settings.SessionFile); err != nil {
		log.Warn().Err(err).Msg("could not persist session")
	}

	if settings.Readme {
		return generateReadme(ctx, client, settings, endpoints.ItemURL, out)
	}

	device, err := client.SelectDevice(ctx, settings.DeviceSerial)
	if err != nil {
		return fmt.Errorf("select device: %w", err)
	}

	entries, err := client.FetchAll(ctx, settings.Class)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "The catalog is empty; nothing to download.")
		return nil
	}

	names := naming.Resolve(entries, naming.Options{
		CutLength:         settings.CutLength,
		ResolveDuplicates: settings.ResolveDuplicates,
	})

	printListing(out, entries)
	if settings.ListOnly {
		return nil
	}

	var selection []int
	if settings.Mode == config.ModeSel {
		selection, err = promptSelection(in, out, entries)
		if errors.Is(err, errSelectionAborted) {
			fmt.Fprintln(out, "Nothing selected.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	tasks, err := planner.Plan(entries, names, settings.OutDir, settings.ResumeFrom, selection)
	if err != nil {
		return err
	}

	outcomes, err := outcome.Open(settings.OutcomeLog)
	if err != nil {
		return err
	}
	defer outcomes.Close()

	svc := download.NewService(client, outcomes, downloadOptions(settings, device.Serial, log))
	svc.OnProgress(func(task model.DownloadTask) {
		switch task.Status {
		case model.TaskStatusSucceeded:
			fmt.Fprintf(out, "[%d/%d] done  %s\n", task.Index, len(tasks), task.DisplayName())
		case model.TaskStatusFailed:
			fmt.Fprintf(out, "[%d/%d] FAIL  %s: %s\n", task.Index, len(tasks), task.DisplayName(), task.LastError)
		}
	})

	summary, runErr := svc.Run(ctx, tasks)
	printSummary(out, summary, outcomes.Path())

	// Individual failures never fail the process; an aborted run does only
	// when nothing got through before the session died.
	if runErr != nil && summary.Succeeded == 0 {
		return runErr
	}
	if runErr != nil {
		log.Warn().Err(runErr).Msg("run aborted after partial success")
	}
	return nil
}

// buildSession restores the persisted session when it matches the requested
// marketplace, then layers any freshly supplied credentials on top.
func buildSession(settings config.Settings, log *logger.Logger) (*session.Context, error) {
	sess, err := session.Restore(settings.SessionFile)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable session file")
		sess = nil
	}
	if sess != nil && sess.Marketplace != settings.Marketplace {
		log.Info().
			Str("persisted", sess.Marketplace.String()).
			Str("requested", settings.Marketplace.String()).
			Msg("marketplace changed, starting a fresh session")
		sess = nil
	}
	if sess == nil {
		sess = session.New(settings.Marketplace)
	}

	switch {
	case settings.Cookie != "":
		if err := sess.SetCookieString(settings.Cookie); err != nil {
			return nil, err
		}
	case settings.CookieFile != "":
		if err := sess.LoadCookieFile(settings.CookieFile); err != nil {
			return nil, err
		}
	case !sess.HasCookies():
		if err := sess.LoadFromBrowser(session.NoBrowserExtractor{}); err != nil {
			return nil, &errs.AuthError{
				Reason:  errs.AuthMissingCredentials,
				Message: "no cookies available; pass --cookie or --cookie-file",
			}
		}
	}

	if settings.CSRFToken != "" {
		sess.CSRFToken = settings.CSRFToken
	}
	if settings.DeviceSerial != "" {
		sess.DeviceSerial = settings.DeviceSerial
	}
	return sess, nil
}

// ensureCSRF probes the library page for a token, falling back to a manual
// prompt when the marker is missing rather than giving up.
func ensureCSRF(ctx context.Context, sess *session.Context, client *catalog.Client, libraryURL string, in io.Reader, out io.Writer) error {
	err := sess.EnsureCSRFToken(ctx, client.HTTPClient(), libraryURL)
	if err == nil {
		return nil
	}

	var authErr *errs.AuthError
	if !errors.As(err, &authErr) || authErr.Reason != errs.AuthCsrfUnavailable {
		return err
	}

	fmt.Fprintln(out, "Could not derive a CSRF token from the library page.")
	fmt.Fprint(out, "Open the library page in your browser and paste the csrfToken value: ")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return err
	}
	token := strings.TrimSpace(scanner.Text())
	if token == "" {
		return err
	}
	sess.CSRFToken = token
	return nil
}

func downloadOptions(settings config.Settings, deviceSerial string, log *logger.Logger) download.Options {
	opts := download.Options{
		Workers: min(settings.Workers, config.MaxWorkers),
		Delay:   settings.DownloadDelay,
	}

	if settings.Dedrm {
		decryptor := dedrm.NewCommandDecryptor()
		if decryptor.Available() {
			opts.Decryptor = decryptor
			opts.DedrmDir = settings.DedrmDir
			// The device serial is the decryption key unless overridden.
			opts.DedrmKey = deviceSerial
			if key := os.Getenv("KINDLE_DEDRM_KEY"); key != "" {
				opts.DedrmKey = key
			}
		} else {
			log.Warn().Msg("decryption tool not found on PATH, downloads will stay encrypted")
		}
	}
	return opts
}

// generateReadme fetches both catalogs and rewrites the stats document.
func generateReadme(ctx context.Context, client *catalog.Client, settings config.Settings, itemURL string, out io.Writer) error {
	books, err := client.FetchAll(ctx, model.ItemClassBook)
	if err != nil {
		return fmt.Errorf("fetch books: %w", err)
	}
	pdocs, err := client.FetchAll(ctx, model.ItemClassPersonalDocument)
	if err != nil {
		return fmt.Errorf("fetch personal documents: %w", err)
	}
	if err := stats.WriteReadme(settings.StatsFile, books, pdocs, itemURL); err != nil {
		return err
	}
	fmt.Fprintf(out, "Stats written to %s\n", settings.StatsFile)
	return nil
}

func printSummary(out io.Writer, summary model.RunSummary, outcomePath string) {
	fmt.Fprintf(out, "\nDone: %d succeeded, %d failed, %d skipped.\n",
		summary.Succeeded, summary.Failed, summary.Skipped)
	if summary.Aborted {
		fmt.Fprintf(out, "Run aborted at index %d: the session expired; supply fresh cookies and resume with --resume-from %d.\n",
			summary.AbortedAt, summary.AbortedAt)
	}
	if summary.Failed > 0 {
		fmt.Fprintf(out, "Failed titles are recorded in %s.\n", outcomePath)
	}
}
