package driver

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/romshark/tojs/config"
)

// DefaultDebounce is how long Watch waits for further changes
// before rebuilding.
const DefaultDebounce = 100 * time.Millisecond

// Watch runs a build and then rebuilds whenever a source file or the
// configuration changes, until ctx is canceled. Build failures are
// logged and don't stop watching. A changed configuration is reloaded,
// an invalid one is logged and the previous one is kept.
func (d *Driver) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(d.appDir); err != nil {
		return err
	}
	if err := d.watchTree(w, d.sourceDir); err != nil {
		return err
	}
	d.rebuild(ctx)

	timer := time.NewTimer(debounce)
	timer.Stop()
	reload := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := d.watchTree(w, ev.Name); err != nil {
						d.log.Warn("watching directory",
							slog.String("dir", ev.Name), slog.Any("err", err))
					}
				}
			}
			switch {
			case d.isConfigFile(ev.Name):
				reload = true
			case !d.isSource(ev.Name):
				continue
			}
			d.log.Debug("change detected",
				slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.log.Warn("watcher", slog.Any("err", err))

		case <-timer.C:
			if reload {
				reload = false
				d.reloadConfig(w)
			}
			d.rebuild(ctx)
		}
	}
}

func (d *Driver) rebuild(ctx context.Context) {
	if _, err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		d.log.Error("build", slog.Any("err", err))
	}
}

func (d *Driver) reloadConfig(w *fsnotify.Watcher) {
	conf, src, err := config.Load(d.appDir)
	if err == nil {
		err = d.configure(*conf, src)
	}
	if err != nil {
		d.log.Error("reloading configuration, keeping previous",
			slog.Any("err", err))
		return
	}
	d.log.Info("configuration reloaded", slog.String("path", src.Path))
	if err := d.watchTree(w, d.sourceDir); err != nil {
		d.log.Warn("watching directory",
			slog.String("dir", d.sourceDir), slog.Any("err", err))
	}
}

// watchTree adds dir and every directory below it to w.
func (d *Driver) watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !e.IsDir() {
			return nil
		}
		return w.Add(p)
	})
}

func (d *Driver) isConfigFile(name string) bool {
	if filepath.Dir(name) != filepath.Clean(d.appDir) {
		return false
	}
	base := filepath.Base(name)
	return base == config.FileName || base == config.LegacyFileName
}

func (d *Driver) isSource(name string) bool {
	rel, err := filepath.Rel(d.sourceDir, name)
	if err != nil || !filepath.IsLocal(rel) {
		return false
	}
	return Matches(filepath.ToSlash(rel), d.conf.Include, d.conf.Exclude)
}
