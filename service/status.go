package service

import (
	"time"
)

// Status represents the current lifecycle state of the annotator
type Status int

// Possible annotator states
const (
	StatusStopped Status = iota
	StatusStarting
	StatusRunning
	StatusStopping
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Info holds runtime information for the annotator
type Info struct {
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	Uptime       time.Duration `json:"uptime"`
	StartTime    time.Time     `json:"start_time"`
	Received     int64         `json:"received"`
	Annotated    int64         `json:"annotated"`
	Failed       int64         `json:"failed"`
	Dropped      int64         `json:"dropped"`
	LastActivity time.Time     `json:"last_activity"`
}
