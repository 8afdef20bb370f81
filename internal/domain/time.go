package domain

import "time"

// TimeLayout is the storage format for timestamps: fixed width UTC, so that
// lexical order equals chronological order.
const TimeLayout = "2006-01-02 15:04:05.000000"

// Stamp formats t for storage.
func Stamp(t time.Time) string { return t.UTC().Format(TimeLayout) }

// Now is the current time formatted for storage.
func Now() string { return Stamp(time.Now()) }
