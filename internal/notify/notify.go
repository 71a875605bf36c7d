package notify

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/boxmark/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventSave emits a notification when labels or pixels are written.
	EventSave Event = "save"
	// EventCrop emits a notification when a crop replaces the image.
	EventCrop Event = "crop"
	// EventDetect emits a notification when the detector finishes.
	EventDetect Event = "detect"
	// EventCopy emits a notification when data is copied to the clipboard.
	EventCopy Event = "copy"
)

// Events lists every event in display order.
var Events = []Event{EventSave, EventCrop, EventDetect, EventCopy}

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: platform.AppName,
		Events: map[Event]EventPreference{
			EventSave:   {Template: "Saved %s"},
			EventCrop:   {Template: "Cropped %s"},
			EventDetect: {Template: "Detector: %s"},
			EventCopy:   {Template: "Copied %s to clipboard"},
		},
	}
}

// LoadPreferences reads BOXMARK_NOTIFY_TITLE and BOXMARK_NOTIFY_<EVENT>_TEXT
// over the defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("BOXMARK_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, event := range Events {
		key := "BOXMARK_NOTIFY_" + strings.ToUpper(string(event)) + "_TEXT"
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			eventPrefs := prefs.Events[event]
			eventPrefs.Template = v
			prefs.Events[event] = eventPrefs
		}
	}
	return prefs
}

// Notifier sends OS-level notifications based on the configured preferences.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    func(title, body string, opts platform.Options) error
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool), send: platform.Notify}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

// Save sends a save notification including the written filename.
func (n *Notifier) Save(path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	detail := strings.TrimSpace(path)
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
	}
	n.dispatch(EventSave, detail, platform.Options{})
}

// Crop sends a crop notification with a preview of the cropped pixels.
func (n *Notifier) Crop(path string, img image.Image) {
	if !n.enabledFor(EventCrop) {
		return
	}
	opts := platform.Options{}
	if img != nil {
		if preview, cleanup, err := createPreview(img); err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = preview
		}
	}
	detail := filepath.Base(path)
	if img != nil {
		s := img.Bounds().Size()
		detail = fmt.Sprintf("%s to %dx%d", detail, s.X, s.Y)
	}
	n.dispatch(EventCrop, detail, opts)
}

// Detect reports a finished detector run on path. Failures are sent as
// critical notifications.
func (n *Notifier) Detect(path string, boxes int, err error) {
	if !n.enabledFor(EventDetect) {
		return
	}
	detail := fmt.Sprintf("%d boxes on %s", boxes, filepath.Base(path))
	opts := platform.Options{Category: "transfer.complete"}
	if err != nil {
		detail = fmt.Sprintf("%s failed: %v", filepath.Base(path), err)
		opts = platform.Options{Category: "transfer.error", Urgency: platform.UrgencyCritical}
	}
	n.dispatch(EventDetect, detail, opts)
}

// Copy sends a clipboard notification.
func (n *Notifier) Copy(detail string) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "status"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil {
		return false
	}
	if n.enabled == nil {
		return false
	}
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	body := n.body(event, detail)
	if body == "" {
		return
	}
	err := n.send(n.prefs.Title, body, opts)
	switch {
	case errors.Is(err, platform.ErrUnsupported):
		// Nothing to show on this host.
	case err != nil:
		log.Printf("notification %s: %v", event, err)
	}
}

func (n *Notifier) body(event Event, detail string) string {
	if !n.enabledFor(event) {
		return ""
	}
	template := strings.TrimSpace(n.prefs.Events[event].Template)
	if template == "" {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "boxmark-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
