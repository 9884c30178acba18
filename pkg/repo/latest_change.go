package repo

import (
	"fmt"
	"iter"

	"github.com/odvcencio/gitread/pkg/object"
)

// LatestChange returns the nearest commit, starting at start, whose content
// at path differs from every one of its parents.
//
// A commit whose entry at path matches one of its parents is skipped and the
// walk continues from the first such parent only; the other parents are
// dropped for this query. A root commit ends the walk and is returned. A nil
// commit with a nil error means history ran out without an answer.
func (r *Repo) LatestChange(start object.Hash, path string) (*object.Commit, error) {
	first, err := r.Store.ReadCommit(start)
	if err != nil {
		return nil, fmt.Errorf("latest change: %w", err)
	}

	queue := newCommitFrontier()
	queue.push(first)
	for {
		c, ok := queue.pop()
		if !ok {
			return nil, nil
		}
		if len(c.Parents) == 0 {
			return c, nil
		}

		sameParent, err := r.firstTreeSameParent(c, path)
		if err != nil {
			return nil, fmt.Errorf("latest change %s: %w", path, err)
		}
		if sameParent == nil {
			return c, nil
		}
		queue.push(sameParent)
	}
}

func (r *Repo) firstTreeSameParent(c *object.Commit, path string) (*object.Commit, error) {
	for _, p := range c.Parents {
		parent, err := r.Store.ReadCommit(p)
		if err != nil {
			return nil, fmt.Errorf("parent of %s: %w", c.Hash, err)
		}
		same, err := r.TreeSame(c.Tree, parent.Tree, path)
		if err != nil {
			return nil, err
		}
		if same {
			return parent, nil
		}
	}
	return nil, nil
}

// PathLog yields the commits that changed path, newest first, by repeating
// LatestChange from each answer's first parent. A root commit is yielded only
// when path exists in its tree. Limit zero means unbounded.
func (r *Repo) PathLog(start object.Hash, path string, opts WalkOptions) iter.Seq2[*object.Commit, error] {
	return func(yield func(*object.Commit, error) bool) {
		next := start
		emitted := 0
		for next != "" {
			c, err := r.LatestChange(next, path)
			if err != nil {
				yield(nil, err)
				return
			}
			if c == nil {
				return
			}

			if len(c.Parents) == 0 {
				_, present, err := r.EntryAt(c.Tree, path)
				if err != nil {
					yield(nil, fmt.Errorf("path log %s: %w", path, err))
					return
				}
				if !present {
					return
				}
			}
			emitted++
			if !yield(c, nil) {
				return
			}
			if opts.Limit > 0 && emitted >= opts.Limit {
				return
			}
			next = c.FirstParent()
		}
	}
}
