package models

import "time"

// Frame is one fully decoded camera image. Data keeps the encoded bytes
// that are sent to the pose estimator.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Width     int
	Height    int
	Format    string // "jpeg" or "png"
	Data      []byte
}
