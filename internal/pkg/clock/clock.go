package clock

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so stores and generators are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// ListingIDGenerator produces ids shaped like listing-<unix millis>-<base36 random>.
type ListingIDGenerator struct {
	Clock Clock
}

func (g ListingIDGenerator) New() string {
	c := g.Clock
	if c == nil {
		c = RealClock{}
	}
	return "listing-" + strconv.FormatInt(c.Now().UnixMilli(), 10) + "-" + strconv.FormatUint(rand.Uint64(), 36)
}

// Millis formats t as RFC3339 with millisecond precision, the format persisted for every timestamp.
func Millis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
