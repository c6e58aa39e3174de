package download

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/kindleget/kindle-downloader/internal/dedrm"
	"github.com/kindleget/kindle-downloader/internal/errs"
	"github.com/kindleget/kindle-downloader/internal/logger"
	"github.com/kindleget/kindle-downloader/internal/model"
	"github.com/kindleget/kindle-downloader/internal/outcome"
	"github.com/kindleget/kindle-downloader/internal/platform"
)

// Fetcher requests the binary payload for a catalog entry. The catalog
// client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, entry model.CatalogEntry) (io.ReadCloser, model.FetchInfo, error)
}

// ProgressFunc is invoked after each task reaches a terminal state.
type ProgressFunc func(task model.DownloadTask)

// Options configures a download run.
type Options struct {
	// Workers caps concurrent downloads. Values below 2 run the queue
	// sequentially in plan order.
	Workers int

	// Delay is the pause between sequential downloads, a courtesy to the
	// remote's throttling.
	Delay time.Duration

	// Decryptor, when set, converts each downloaded file into DedrmDir.
	Decryptor dedrm.Decryptor
	DedrmDir  string
	DedrmKey  string
}

// Service runs download tasks against a Fetcher and records failures in
// the outcome log.
type Service struct {
	mu         sync.Mutex
	fetcher    Fetcher
	outcomes   *outcome.Log
	opts       Options
	log        *logger.Logger
	onProgress ProgressFunc
}

// NewService creates a download service.
func NewService(fetcher Fetcher, outcomes *outcome.Log, opts Options) *Service {
	return &Service{
		fetcher:  fetcher,
		outcomes: outcomes,
		opts:     opts,
		log:      logger.New("download"),
	}
}

// OnProgress registers a callback for task completion. Must be set before
// Run; the callback is invoked from worker goroutines when Workers > 1.
func (s *Service) OnProgress(fn ProgressFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onProgress = fn
}

// Run executes the queue. Per-task failures are recorded and the run
// continues; a session expiry aborts it, marking the unstarted remainder
// skipped. The summary accounts for every task either way.
func (s *Service) Run(ctx context.Context, tasks []model.DownloadTask) (model.RunSummary, error) {
	if s.opts.Workers > 1 {
		return s.runParallel(ctx, tasks)
	}
	return s.runSequential(ctx, tasks)
}

func (s *Service) runSequential(ctx context.Context, tasks []model.DownloadTask) (model.RunSummary, error) {
	var summary model.RunSummary

	for i := range tasks {
		task := &tasks[i]
		if task.Status == model.TaskStatusSkipped {
			summary.Skipped++
			continue
		}

		if err := ctx.Err(); err != nil {
			s.skipRemaining(tasks[i:], &summary)
			return summary, err
		}
		if s.opts.Delay > 0 && i > 0 {
			select {
			case <-time.After(s.opts.Delay):
			case <-ctx.Done():
				s.skipRemaining(tasks[i:], &summary)
				return summary, ctx.Err()
			}
		}

		err := s.runTask(ctx, task)
		s.notify(*task)

		switch {
		case err == nil:
			summary.Succeeded++
		case errs.IsSessionExpired(err):
			summary.Failed++
			summary.Aborted = true
			summary.AbortedAt = task.Index
			s.skipRemaining(tasks[i+1:], &summary)
			return summary, fmt.Errorf("session expired at task %d: %w", task.Index, err)
		default:
			summary.Failed++
		}
	}
	return summary, nil
}

func (s *Service) runParallel(ctx context.Context, tasks []model.DownloadTask) (model.RunSummary, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		summary  model.RunSummary
		fatalErr error
		wg       sync.WaitGroup
		sem      = make(chan struct{}, s.opts.Workers)
	)

	for i := range tasks {
		task := &tasks[i]
		if task.Status == model.TaskStatusSkipped {
			s.mu.Lock()
			summary.Skipped++
			s.mu.Unlock()
			continue
		}

		if runCtx.Err() != nil {
			s.mu.Lock()
			task.Status = model.TaskStatusSkipped
			summary.Skipped++
			s.mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := s.runTask(runCtx, task)
			s.notify(*task)

			s.mu.Lock()
			defer s.mu.Unlock()
			switch {
			case err == nil:
				summary.Succeeded++
			case errs.IsSessionExpired(err):
				summary.Failed++
				if !summary.Aborted {
					summary.Aborted = true
					summary.AbortedAt = task.Index
					fatalErr = fmt.Errorf("session expired at task %d: %w", task.Index, err)
				}
				cancel()
			default:
				summary.Failed++
			}
		}()
	}
	wg.Wait()

	return summary, fatalErr
}

// skipRemaining marks every unfinished task in rest skipped.
func (s *Service) skipRemaining(rest []model.DownloadTask, summary *model.RunSummary) {
	for i := range rest {
		if !rest[i].Status.IsFinished() {
			rest[i].Status = model.TaskStatusSkipped
			summary.Skipped++
		} else if rest[i].Status == model.TaskStatusSkipped {
			summary.Skipped++
		}
	}
}

// runTask downloads one entry to its target path and optionally decrypts
// it. The task is mutated to its terminal state; failures are appended to
// the outcome log before returning.
func (s *Service) runTask(ctx context.Context, task *model.DownloadTask) error {
	task.Status = model.TaskStatusPending
	task.StartedAt = time.Now()

	err := s.download(ctx, task)
	task.FinishedAt = time.Now()

	if err != nil {
		task.Status = model.TaskStatusFailed
		task.LastError = err.Error()
		s.log.Error().
			Int("index", task.Index).
			Str("title", task.Entry.DisplayTitle()).
			Err(err).
			Msg("download failed")
		s.record(task, err)
		return err
	}

	task.Status = model.TaskStatusSucceeded
	return nil
}

func (s *Service) download(ctx context.Context, task *model.DownloadTask) error {
	body, info, err := s.fetcher.Fetch(ctx, task.Entry)
	if err != nil {
		return err
	}
	defer body.Close()

	finalPath := task.TargetPath + info.Extension
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(finalPath)); err != nil {
		return &errs.FilesystemError{Reason: errs.FilesystemWriteFailed, Path: filepath.Dir(finalPath), Err: err}
	}

	written, err := platform.AtomicWrite(finalPath, body)
	if err != nil {
		return classifyWrite(finalPath, err)
	}
	task.TargetPath = finalPath

	s.log.Info().
		Int("index", task.Index).
		Str("file", filepath.Base(finalPath)).
		Int64("bytes", written).
		Msg("downloaded")

	if s.opts.Decryptor != nil {
		return s.decrypt(ctx, task, finalPath)
	}
	return nil
}

// decrypt converts the downloaded file into the cleartext directory. The
// encrypted artifact is kept at its original path regardless.
func (s *Service) decrypt(ctx context.Context, task *model.DownloadTask, inputPath string) error {
	if err := platform.CreateDirectoryIfNotExists(s.opts.DedrmDir); err != nil {
		return &errs.FilesystemError{Reason: errs.FilesystemWriteFailed, Path: s.opts.DedrmDir, Err: err}
	}

	outputPath := filepath.Join(s.opts.DedrmDir, filepath.Base(inputPath))
	if err := s.opts.Decryptor.Decrypt(ctx, inputPath, outputPath, s.opts.DedrmKey); err != nil {
		return err
	}

	s.log.Info().
		Int("index", task.Index).
		Str("file", filepath.Base(outputPath)).
		Msg("decrypted")
	return nil
}

// record appends a failure to the outcome log. A logging failure here
// must not mask the download failure, so it is only logged.
func (s *Service) record(task *model.DownloadTask, taskErr error) {
	if s.outcomes == nil {
		return
	}
	err := s.outcomes.Append(model.OutcomeRecord{
		Index:     task.Index,
		Title:     task.Entry.DisplayTitle(),
		ErrorKind: errs.Kind(taskErr),
		Message:   taskErr.Error(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to record outcome")
	}
}

func (s *Service) notify(task model.DownloadTask) {
	s.mu.Lock()
	fn := s.onProgress
	s.mu.Unlock()
	if fn != nil {
		fn(task)
	}
}

// classifyWrite converts a write failure into the error taxonomy,
// distinguishing names the filesystem cannot hold.
func classifyWrite(path string, err error) error {
	if platform.IsNameTooLong(err) {
		return &errs.FilesystemError{Reason: errs.FilesystemPathTooLong, Path: path, Err: err}
	}
	return &errs.FilesystemError{Reason: errs.FilesystemWriteFailed, Path: path, Err: err}
}
