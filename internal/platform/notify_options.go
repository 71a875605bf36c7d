// Package platform sends desktop notifications through the host's
// notification service.
package platform

import (
	"errors"
	"time"
)

// AppName is the application name shown by notification centres.
const AppName = "boxmark"

// DefaultTimeout is how long a notification stays visible where the host
// lets the sender choose.
const DefaultTimeout = 5 * time.Second

// ErrUnsupported is returned where no notification service is known.
var ErrUnsupported = errors.New("desktop notifications are not supported on this platform")

// Urgency mirrors the freedesktop urgency levels.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
	// Urgency defaults to UrgencyLow; failures use UrgencyCritical.
	Urgency Urgency
	// Category is a freedesktop category such as "transfer.complete".
	Category string
}

func (o Options) expireMillis() int32 {
	if o.Urgency == UrgencyCritical {
		// Critical notifications stay until dismissed.
		return 0
	}
	if o.Timeout > 0 {
		return int32(o.Timeout / time.Millisecond)
	}
	return int32(DefaultTimeout / time.Millisecond)
}
