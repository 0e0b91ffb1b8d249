package gitrepo

import (
	"path/filepath"
	"sync"
)

// storeLocks holds one lock per shared git directory, so every handle
// opened in this process on the same repository agrees on it. A fetch writes
// pack files and index files in place and takes the lock exclusively; ref,
// worktree and object reads share it.
var storeLocks sync.Map

func storeLock(commonDir string) *sync.RWMutex {
	key := filepath.Clean(commonDir)
	if resolved, err := filepath.EvalSymlinks(key); err == nil {
		key = resolved
	}
	l, _ := storeLocks.LoadOrStore(key, &sync.RWMutex{})
	return l.(*sync.RWMutex)
}

func (r *Repo) exclusive() (release func()) {
	l := storeLock(r.CommonDir)
	l.Lock()
	return l.Unlock
}

func (r *Repo) shared() (release func()) {
	l := storeLock(r.CommonDir)
	l.RLock()
	return l.RUnlock
}
