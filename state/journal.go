// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

// journal maintains storage writes in a stack of levels.
// Each level inherits key/value of the level below it, acting as a map
// with checkpoint/revert manner.
type journal struct {
	src         func(key storageKey) ([]byte, error)
	levels      []*level
	keyRevision map[storageKey][]int
}

type level struct {
	kvs     map[storageKey][]byte
	touched []storageKey
}

func newJournal(src func(key storageKey) ([]byte, error)) *journal {
	return &journal{
		src:         src,
		keyRevision: make(map[storageKey][]int),
	}
}

// Push pushes a new level on the stack.
// It returns stack depth before push.
func (j *journal) Push() int {
	j.levels = append(j.levels, &level{kvs: make(map[storageKey][]byte)})
	return len(j.levels) - 1
}

// Pop pops the level at top of stack, reverting all Put operations since
// the matching Push.
func (j *journal) Pop() {
	top := j.levels[len(j.levels)-1]
	for key := range top.kvs {
		revs := j.keyRevision[key]
		revs = revs[:len(revs)-1]
		if len(revs) == 0 {
			delete(j.keyRevision, key)
		} else {
			j.keyRevision[key] = revs
		}
	}
	j.levels = j.levels[:len(j.levels)-1]
}

// PopTo pops levels until stack depth reaches depth.
func (j *journal) PopTo(depth int) {
	for len(j.levels) > depth {
		j.Pop()
	}
}

// Depth returns depth of stack.
func (j *journal) Depth() int {
	return len(j.levels)
}

// Get gets the value for given key, falling through to src when the key
// was never written.
func (j *journal) Get(key storageKey) ([]byte, error) {
	if revs, ok := j.keyRevision[key]; ok {
		lvl := j.levels[revs[len(revs)-1]]
		if v, ok := lvl.kvs[key]; ok {
			return v, nil
		}
	}
	return j.src(key)
}

// Put puts key value into the level at stack top.
// It panics if the stack is empty.
func (j *journal) Put(key storageKey, value []byte) {
	top := j.levels[len(j.levels)-1]
	if _, ok := top.kvs[key]; !ok {
		top.touched = append(top.touched, key)
	}
	top.kvs[key] = value

	rev := len(j.levels) - 1
	if revs, ok := j.keyRevision[key]; !ok || revs[len(revs)-1] != rev {
		j.keyRevision[key] = append(revs, rev)
	}
}

// Changed iterates all keys written at any live level, in write order,
// deduplicated to the latest value.
func (j *journal) Changed(cb func(key storageKey, value []byte) error) error {
	seen := make(map[storageKey]bool)
	for i := len(j.levels) - 1; i >= 0; i-- {
		lvl := j.levels[i]
		for _, key := range lvl.touched {
			if seen[key] {
				continue
			}
			seen[key] = true
			if err := cb(key, lvl.kvs[key]); err != nil {
				return err
			}
		}
	}
	return nil
}
