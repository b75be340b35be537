package client

import (
	"log"

	"github.com/apreader/client/pkg/compositor"
)

// Display receives rendered lines and connection reports. The client calls
// it from the network goroutine, so implementations must hand work off
// (a channel, a program queue, a lock) rather than assume a UI thread.
type Display interface {
	Notify(bucket compositor.Bucket, text string)
	SetConnectionState(label string, ok bool)
}

type multiDisplay []Display

// Displays fans calls out to every non-nil display, in order.
func Displays(ds ...Display) Display {
	var out multiDisplay
	for _, d := range ds {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

func (m multiDisplay) Notify(bucket compositor.Bucket, text string) {
	for _, d := range m {
		d.Notify(bucket, text)
	}
}

func (m multiDisplay) SetConnectionState(label string, ok bool) {
	for _, d := range m {
		d.SetConnectionState(label, ok)
	}
}

// LogDisplay prints connection reports on a logger; used when there is no
// TUI. The notify module already logs each line once, so per-bucket lines
// are only printed when Verbose is set.
type LogDisplay struct {
	Logger  *log.Logger
	Verbose bool
}

func (d LogDisplay) Notify(bucket compositor.Bucket, text string) {
	if d.Verbose {
		d.Logger.Printf("[%s] %s", bucket, text)
	}
}

func (d LogDisplay) SetConnectionState(label string, ok bool) {
	if ok {
		d.Logger.Printf("status: %s", label)
	} else {
		d.Logger.Printf("status: %s (not connected)", label)
	}
}
