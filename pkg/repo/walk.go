package repo

import (
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/odvcencio/gitread/pkg/object"
)

// WalkOptions bounds a history walk.
type WalkOptions struct {
	// Limit stops the walk after this many commits. Zero means unbounded.
	Limit int
}

// Walk yields commits reachable from start, newest committer timestamp
// first. Every commit is yielded once even when several children share it.
//
// The sequence is lazy: a commit's parents are read only after the consumer
// asks for the next item, so breaking out of the range loop stops all disk
// access. The first error is yielded with a nil commit and ends the walk.
//
// The order is only as good as the committer clocks; skewed timestamps can
// yield a parent before its child.
func (r *Repo) Walk(start object.Hash, opts WalkOptions) iter.Seq2[*object.Commit, error] {
	return func(yield func(*object.Commit, error) bool) {
		first, err := r.Store.ReadCommit(start)
		if err != nil {
			yield(nil, fmt.Errorf("walk: %w", err))
			return
		}

		queue := newCommitFrontier()
		queue.push(first)
		emitted := 0
		defer func() {
			r.logger.Debug("walk finished",
				zap.String("start", string(start)),
				zap.Int("commits", emitted),
			)
		}()

		for {
			c, ok := queue.pop()
			if !ok {
				return
			}
			emitted++
			if !yield(c, nil) {
				return
			}
			if opts.Limit > 0 && emitted >= opts.Limit {
				return
			}

			for _, p := range c.Parents {
				if queue.visited(p) {
					continue
				}
				parent, err := r.Store.ReadCommit(p)
				if err != nil {
					yield(nil, fmt.Errorf("walk: parent of %s: %w", c.Hash, err))
					return
				}
				queue.push(parent)
			}
		}
	}
}

// Log collects up to limit commits from Walk.
func (r *Repo) Log(start object.Hash, limit int) ([]*object.Commit, error) {
	var commits []*object.Commit
	for c, err := range r.Walk(start, WalkOptions{Limit: limit}) {
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, nil
}
