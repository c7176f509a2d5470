package classifier

import (
	"sync"
	"time"
)

// KeyPool hands out API keys round-robin while each stays under its daily
// quota. Usage resets when the UTC day changes. A limit of zero or less means
// unlimited.
type KeyPool struct {
	mu    sync.Mutex
	keys  []string
	limit int
	used  map[string]int
	spent map[string]bool
	day   string
	next  int
	now   func() time.Time
}

func NewKeyPool(keys []string, dailyLimit int, now func() time.Time) *KeyPool {
	if now == nil {
		now = time.Now
	}
	var cleaned []string
	seen := make(map[string]bool)
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		cleaned = append(cleaned, k)
	}
	return &KeyPool{
		keys:  cleaned,
		limit: dailyLimit,
		used:  make(map[string]int),
		spent: make(map[string]bool),
		now:   now,
	}
}

func (p *KeyPool) rollover() {
	day := p.now().UTC().Format("2006-01-02")
	if day != p.day {
		p.day = day
		p.used = make(map[string]int)
		p.spent = make(map[string]bool)
	}
}

func (p *KeyPool) hasRoom(key string) bool {
	if p.spent[key] {
		return false
	}
	return p.limit <= 0 || p.used[key] < p.limit
}

// Acquire returns the next key with quota left and counts one use against it.
func (p *KeyPool) Acquire() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rollover()

	for i := 0; i < len(p.keys); i++ {
		idx := (p.next + i) % len(p.keys)
		key := p.keys[idx]
		if p.hasRoom(key) {
			p.used[key]++
			p.next = (idx + 1) % len(p.keys)
			return key, true
		}
	}
	return "", false
}

// Exhaust marks key as spent for the rest of the day, typically after the
// provider rejected it for quota.
func (p *KeyPool) Exhaust(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rollover()
	p.spent[key] = true
}

// HasCapacity reports whether Acquire would succeed.
func (p *KeyPool) HasCapacity() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rollover()
	for _, k := range p.keys {
		if p.hasRoom(k) {
			return true
		}
	}
	return false
}

// Usage returns a copy of today's per-key counters.
func (p *KeyPool) Usage() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rollover()
	out := make(map[string]int, len(p.used))
	for k, v := range p.used {
		out[k] = v
	}
	return out
}

func (p *KeyPool) Len() int { return len(p.keys) }
