package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"block-manifests/internal/ports"
)

const defaultWatchDebounce = 200 * time.Millisecond

// ManifestWatcher reports changes to manifest files under a set of roots.
// Bursts of events (editors often write twice) are collapsed into one
// callback per debounce window.
type ManifestWatcher struct {
	Pattern  string
	Debounce time.Duration
}

func NewManifestWatcher() *ManifestWatcher {
	return &ManifestWatcher{Pattern: "**/*.json", Debounce: defaultWatchDebounce}
}

// Watch blocks until ctx is done. Roots that do not exist are skipped.
func (w *ManifestWatcher) Watch(ctx context.Context, roots []string, onChange func(path string)) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create file watcher").
			WithCause(err)
	}
	defer fsWatcher.Close()

	watched := 0
	for _, root := range roots {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			log.Debug().Str("root", root).Msg("skipping missing watch root")
			continue
		}
		watched += w.addTree(fsWatcher, root)
	}
	if watched == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no manifest directories to watch")
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addTree(fsWatcher, event.Name)
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("manifest event")
			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce())
			} else {
				timer.Reset(w.debounce())
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange(pending)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func (w *ManifestWatcher) addTree(fsWatcher *fsnotify.Watcher, root string) int {
	added := 0
	_ = filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil || !entry.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsWatcher.Add(path); err != nil {
			log.Debug().Err(err).Str("path", path).Msg("failed to watch directory")
			return nil
		}
		added++
		return nil
	})
	return added
}

func (w *ManifestWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	pattern := w.Pattern
	if pattern == "" {
		pattern = "**/*.json"
	}
	match, _ := doublestar.Match(pattern, strings.TrimPrefix(filepath.ToSlash(event.Name), "/"))
	return match
}

func (w *ManifestWatcher) debounce() time.Duration {
	if w.Debounce <= 0 {
		return defaultWatchDebounce
	}
	return w.Debounce
}

var _ ports.ManifestWatcherPort = (*ManifestWatcher)(nil)
