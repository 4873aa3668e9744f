package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/rs/zerolog/log"
)

var _ domain.DocumentSource = (*FileSource)(nil)

// editors write a file in several steps; changes closer together than this are reported once
const watchDebounce = 250 * time.Millisecond

// FileSource reads the portfolio document from a local file.
type FileSource struct {
	path     string
	debounce time.Duration
}

func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:     path,
		debounce: watchDebounce,
	}
}

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return content, nil
}

func (s *FileSource) Describe() string {
	return "file://" + s.path
}

// Watch calls onChange after the file is written, created or replaced, until ctx is done.
// The parent directory is watched so atomic replaces are seen too.
func (s *FileSource) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	log.Info().Str("path", target).Msg("Watching portfolio document for changes")

	var pending <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Portfolio document changed")
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			pending = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Str("path", target).Msg("Document watcher error")

		case <-pending:
			pending = nil
			onChange()
		}
	}
}
