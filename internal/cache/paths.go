package cache

import "sync"

// PathIndex remembers the content hash last processed for each file path so
// repeated filesystem events for an unchanged file can be skipped.
type PathIndex struct {
	mu     sync.RWMutex
	hashes map[string]string
}

func NewPathIndex() *PathIndex {
	return &PathIndex{hashes: make(map[string]string)}
}

// Get returns the hash recorded for path.
func (p *PathIndex) Get(path string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.hashes[path]
	return h, ok
}

// Changed records hash for path and reports whether it differs from the
// previous record.
func (p *PathIndex) Changed(path, hash string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.hashes[path]; ok && prev == hash {
		return false
	}
	p.hashes[path] = hash
	return true
}

func (p *PathIndex) Delete(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.hashes, path)
}

func (p *PathIndex) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hashes = make(map[string]string)
}
