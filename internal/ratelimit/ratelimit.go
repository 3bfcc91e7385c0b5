package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultRequestsPerMinute = 10
	cleanupInterval          = 5 * time.Minute
)

// Limiter - sliding window по строковому ключу.
// Ключи: "tg:<id>" для телеграма, "http:user:<id>" или "http:ip:<ip>" для API.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

type Config struct {
	RequestsPerMinute int
}

// Decision - итог одной попытки
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetAt - когда освободится ближайший слот
	ResetAt time.Time
}

func New(cfg Config) *Limiter {
	limit := cfg.RequestsPerMinute
	if limit <= 0 {
		limit = DefaultRequestsPerMinute
	}

	l := &Limiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: time.Minute,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *Limiter) Limit() int {
	return l.limit
}

// Take засчитывает запрос, если слот есть, и сразу отдаёт остаток и время сброса
func (l *Limiter) Take(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	fresh := l.freshLocked(key, now)

	d := Decision{Allowed: len(fresh) < l.limit}
	if d.Allowed {
		fresh = append(fresh, now)
	}
	l.hits[key] = fresh

	d.Remaining = max(l.limit-len(fresh), 0)
	d.ResetAt = resetAt(fresh, now, l.window)
	return d
}

func (l *Limiter) Allow(key string) bool {
	return l.Take(key).Allowed
}

func (l *Limiter) RemainingRequests(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return max(l.limit-len(l.freshLocked(key, l.now())), 0)
}

// ResetTime - когда освободится ближайший слот; сейчас, если ключ свободен
func (l *Limiter) ResetTime(key string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	return resetAt(l.freshLocked(key, now), now, l.window)
}

// Stop останавливает фоновую очистку. Повторный вызов безопасен.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// freshLocked отбрасывает отметки старше окна. Отметки идут по возрастанию,
// поэтому достаточно найти первую свежую.
func (l *Limiter) freshLocked(key string, now time.Time) []time.Time {
	ts := l.hits[key]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

func resetAt(fresh []time.Time, now time.Time, window time.Duration) time.Time {
	if len(fresh) == 0 {
		return now
	}
	return fresh[0].Add(window)
}

func (l *Limiter) cleanup() {
	tick := time.NewTicker(cleanupInterval)
	defer tick.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-tick.C:
			l.removeStale()
		}
	}
}

func (l *Limiter) removeStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key := range l.hits {
		fresh := l.freshLocked(key, now)
		if len(fresh) == 0 {
			delete(l.hits, key)
			continue
		}
		l.hits[key] = fresh
	}
}
