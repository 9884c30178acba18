package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odvcencio/gitread/pkg/object"
	"github.com/odvcencio/gitread/pkg/repo"
)

const watchDebounce = 100 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [revision]",
		Short: "Print new commits as a revision moves",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			rev := "HEAD"
			if len(args) == 1 {
				rev = args[0]
			}
			tip, err := r.ResolveRevision(rev)
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			p := a.palette(out)
			w := &refWatcher{
				repo:     r,
				rev:      rev,
				tip:      tip,
				limit:    a.settings.Limit,
				debounce: watchDebounce,
				logger:   a.logger,
				onCommits: func(commits []*object.Commit) error {
					for _, c := range commits {
						p.printOneline(out, c)
					}
					return nil
				},
			}
			fw, err := w.start()
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			fmt.Fprintf(out, "watching %s at %s\n", rev, tip.Short())
			return w.run(ctx, fw)
		},
	}
	return cmd
}

// refWatcher re-resolves a revision whenever HEAD, packed-refs or a loose
// ref changes, and reports the commits that became reachable.
type refWatcher struct {
	repo      *repo.Repo
	rev       string
	tip       object.Hash
	limit     int
	debounce  time.Duration
	logger    *zap.Logger
	onCommits func([]*object.Commit) error
}

// start watches the git dir and every directory under refs/. fsnotify does
// not recurse, so directories created later are added as they appear.
func (w *refWatcher) start() (*fsnotify.Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(w.repo.GitDir); err != nil {
		fw.Close()
		return nil, err
	}
	refsDir := filepath.Join(w.repo.GitDir, "refs")
	err = filepath.WalkDir(refsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return nil, err
	}
	return fw, nil
}

func (w *refWatcher) run(ctx context.Context, fw *fsnotify.Watcher) error {
	defer fw.Close()

	changed := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.Add(event.Name); err != nil {
						w.logger.Warn("watch new ref directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			if !relevantRefEvent(w.repo.GitDir, event) {
				continue
			}
			w.logger.Debug("ref change", zap.String("path", event.Name), zap.Stringer("op", event.Op))

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})

		case <-changed:
			if err := w.refresh(); err != nil {
				return err
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *refWatcher) refresh() error {
	tip, err := w.repo.ResolveRevision(w.rev)
	if err != nil {
		// The ref may be mid-update; the next event retries.
		w.logger.Debug("resolve during watch", zap.String("rev", w.rev), zap.Error(err))
		return nil
	}
	if tip == w.tip {
		return nil
	}
	commits, err := newCommits(w.repo, w.tip, tip, w.limit)
	if err != nil {
		return err
	}
	w.tip = tip
	return w.onCommits(commits)
}

// newCommits lists commits reachable from newTip, newest first, stopping at
// oldTip. If oldTip is not an ancestor the walk stops at limit instead.
func newCommits(r *repo.Repo, oldTip, newTip object.Hash, limit int) ([]*object.Commit, error) {
	var commits []*object.Commit
	for c, err := range r.Walk(newTip, repo.WalkOptions{Limit: limit}) {
		if err != nil {
			return nil, err
		}
		if c.Hash == oldTip {
			break
		}
		commits = append(commits, c)
	}
	return commits, nil
}

func relevantRefEvent(gitDir string, event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	if strings.HasSuffix(event.Name, ".lock") {
		return false
	}
	rel, err := filepath.Rel(gitDir, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == "HEAD" || rel == "packed-refs" || strings.HasPrefix(rel, "refs/")
}
