package catalog

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Clock produces monotonically increasing snapshot timestamps. The naive
// choice -- time.Now() rendered through FormatTimestamp -- satisfies the
// lexicographic-sort invariant (I2) as long as the wall clock only ever
// advances between calls. §9's Open Question flags that a clock rollback (or
// two snapshots landing in the same microsecond) can violate that invariant.
//
// Clock resolves it by tracking the last instant it handed out. Each new
// instant is cut to the microsecond resolution of the timestamp format; if
// it does not fall strictly after the last one (two snapshots in the same
// microsecond, or the wall clock moving backwards between calls), Clock
// emits the last instant plus one microsecond instead -- the persisted
// counter of record is simply "one tick past the last name we gave out".
// Before that comparison the wall-clock reading is offset by a nudge of
// under 66µs taken from the two leading entropy bytes of a ULID drawn from
// ulid's monotonic entropy source (the same library the teacher uses to key
// blocks off wall time in store.go); those bytes rarely change within one
// millisecond, so the nudge does not by itself separate calls.
type Clock struct {
	mu     sync.Mutex
	source *ulid.MonotonicEntropy
	last   time.Time
}

// NewClock returns a Clock whose entropy source is a math/rand generator
// seeded with the current time.
func NewClock() *Clock {
	return &Clock{source: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)}
}

// Now returns the next snapshot timestamp string, guaranteed to sort after
// every timestamp previously returned by this Clock.
func (c *Clock) Now() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if id, err := ulid.New(ulid.Timestamp(now), c.source); err == nil {
		entropy := id.Entropy()
		nudge := time.Duration(entropy[0])<<8 | time.Duration(entropy[1])
		now = now.Add(nudge * time.Nanosecond)
	}
	now = now.Truncate(time.Microsecond)

	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return FormatTimestamp(now)
}
