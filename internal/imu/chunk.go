package imu

import (
	"time"

	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// Chunk is a run of consecutive accelerometer samples from one sensor, as
// published on the samples topic.
type Chunk struct {
	Source  string          `json:"source"` // sensor name, one filter state per source
	Seq     uint64          `json:"seq"`    // increases by one per chunk
	Period  float64         `json:"period"` // seconds between samples
	Time    time.Time       `json:"time"`   // time of the last sample
	Samples []motion.Sample `json:"samples"`
}

// EventMessage is published on the events topic for every classified chunk
// that produced an event.
type EventMessage struct {
	Source    string               `json:"source"`
	Seq       uint64               `json:"seq"`
	Event     string               `json:"event"`   // "start_positive", "start_negative", "none"
	Trigger   int                  `json:"trigger"` // 1, -1, 0
	Message   string               `json:"message,omitempty"`
	Color     string               `json:"color"`     // indicator tag
	Indicator string               `json:"indicator"` // palette name for the tag
	State     string               `json:"state"`
	Slope     motion.SlopeEstimate `json:"slope"`
	Time      time.Time            `json:"time"`
}

// SampleSource is anything that can provide accelerometer samples over time.
type SampleSource interface {
	NextSample() (motion.Sample, error)
}
