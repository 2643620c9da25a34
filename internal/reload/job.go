// Package reload replaces the whole menu hierarchy from an administrative
// spreadsheet whenever its contents change.
package reload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/internal/model"
	"github.com/unkn0wn-root/menucache/internal/util"
)

const defaultInterval = 15 * time.Second

type Replacer interface {
	ReplaceAll(ctx context.Context, menus []model.MenuTree) error
}

type Flusher interface {
	Flush(ctx context.Context) error
}

type Options struct {
	File     string        // required
	HashFile string        // "" => File + ".sha256"
	Interval time.Duration // 0 => 15s
	Watch    bool          // also reload on filesystem events
	Logger   menucache.Logger
}

type Job struct {
	store    Replacer
	cache    Flusher
	file     string
	hashFile string
	interval time.Duration
	watch    bool
	log      menucache.Logger
}

func New(store Replacer, cache Flusher, opts Options) (*Job, error) {
	if opts.File == "" {
		return nil, errors.New("reload: file is required")
	}
	j := &Job{
		store:    store,
		cache:    cache,
		file:     filepath.Clean(opts.File),
		hashFile: opts.HashFile,
		interval: opts.Interval,
		watch:    opts.Watch,
		log:      opts.Logger,
	}
	if j.hashFile == "" {
		j.hashFile = j.file + ".sha256"
	}
	if j.interval <= 0 {
		j.interval = defaultInterval
	}
	if j.log == nil {
		j.log = menucache.NopLogger{}
	}
	return j, nil
}

// RunOnce reloads if the file exists and its digest differs from the stored
// one. It reports whether the store was replaced. The stored digest advances
// only after the cache flush succeeded.
func (j *Job) RunOnce(ctx context.Context) (bool, error) {
	digest, err := util.FileSHA256(j.file)
	if errors.Is(err, fs.ErrNotExist) {
		j.log.Debug("reload file absent", menucache.Fields{"file": j.file})
		return false, nil
	}
	if err != nil {
		return false, err
	}
	prev, err := util.ReadDigest(j.hashFile)
	if err != nil {
		return false, fmt.Errorf("read digest: %w", err)
	}
	if prev == digest {
		return false, nil
	}

	menus, err := ReadWorkbook(j.file)
	if err != nil {
		return false, err
	}
	if err := j.store.ReplaceAll(ctx, menus); err != nil {
		return false, fmt.Errorf("replace store: %w", err)
	}
	// the digest is recorded only once the cache is flushed, so a failed
	// flush is retried by the next run
	if err := j.cache.Flush(ctx); err != nil {
		return true, fmt.Errorf("flush cache: %w", err)
	}
	if err := util.WriteDigest(j.hashFile, digest); err != nil {
		return true, fmt.Errorf("write digest: %w", err)
	}
	j.log.Info("menu reloaded", menucache.Fields{"file": j.file, "menus": len(menus), "digest": digest[:12]})
	return true, nil
}

// Run reloads on every tick, and on file events when watching, until ctx is
// done.
func (j *Job) Run(ctx context.Context) error {
	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if j.watch {
		w, err := fsnotify.NewWatcher()
		if err == nil {
			err = w.Add(filepath.Dir(j.file))
		}
		if err != nil {
			j.log.Warn("file watch unavailable; polling only", menucache.Fields{"file": j.file, "err": err})
		} else {
			defer w.Close()
			events, watchErrs = w.Events, w.Errors
		}
	}

	t := time.NewTicker(j.interval)
	defer t.Stop()

	j.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			j.tick(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != j.file || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			j.tick(ctx)
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			j.log.Warn("file watch error", menucache.Fields{"file": j.file, "err": err})
		}
	}
}

func (j *Job) tick(ctx context.Context) {
	if _, err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
		j.log.Error("menu reload failed", menucache.Fields{"file": j.file, "err": err})
	}
}
