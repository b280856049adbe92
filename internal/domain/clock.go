package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

type localClock struct {
	clockwork.Clock
	loc *time.Location
}

// LocalClock wraps c so that Now reports wall time in loc. Everything else,
// timers and sleeps included, is delegated unchanged. A nil loc returns c.
func LocalClock(c clockwork.Clock, loc *time.Location) clockwork.Clock {
	if loc == nil {
		return c
	}
	return localClock{Clock: c, loc: loc}
}

func (c localClock) Now() time.Time { return c.Clock.Now().In(c.loc) }
