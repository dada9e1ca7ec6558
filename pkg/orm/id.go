package orm

import (
	"time"

	"github.com/google/uuid"
)

// NextID returns a unique id whose lexical order follows creation time
// (UUID v7). Falls back to a random v4 if v7 generation fails.
func NextID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// NextIDProducer adapts NextID for DefaultFunc.
func NextIDProducer() any { return NextID() }

// UnixTime returns the current time as fractional seconds since the epoch,
// for FloatField timestamps.
func UnixTime() any {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Now returns the current UTC time formatted as RFC 3339 with nanoseconds,
// for string timestamp columns.
func Now() any {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
