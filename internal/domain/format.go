package domain

import (
	"fmt"
	"math"
)

// FaultUnknown is reported whenever the classifier cannot produce a category.
const FaultUnknown = "Unknown"

var faultIcons = map[string]string{
	"Motor Failure": "gear-fill",
	"Short Circuit": "lightning-charge-fill",
	"Leak":          "droplet-fill",
	"Sensor Fault":  "cpu-fill",
}

// FaultIcon returns the UI icon hint for a fault category.
func FaultIcon(fault string) string {
	if icon, ok := faultIcons[fault]; ok {
		return icon
	}
	return "exclamation-triangle"
}

// StatusDisplay is how a fault workflow status renders in the UI.
type StatusDisplay struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var statusDisplays = map[string]StatusDisplay{
	"IN_PROGRESS": {Label: "In Progress", Color: "warning", Icon: "hourglass-split"},
	"COMPLETED":   {Label: "Completed", Color: "success", Icon: "check-circle-fill"},
	"ON_HOLD":     {Label: "On Hold", Color: "secondary", Icon: "pause-circle-fill"},
	"NEW":         {Label: "New", Color: "info", Icon: "plus-circle-fill"},
}

// StatusInfo returns the display for a fault status. Unrecognised statuses
// keep their raw code as the label.
func StatusInfo(status string) StatusDisplay {
	if d, ok := statusDisplays[status]; ok {
		return d
	}
	return StatusDisplay{Label: status, Color: "secondary", Icon: "circle"}
}

// FormatDuration renders hours as "1h 30m", "2h", or "15m". Non-positive and
// NaN durations render as "N/A". Minutes are truncated, not rounded.
func FormatDuration(hours float64) string {
	if math.IsNaN(hours) || hours <= 0 {
		return "N/A"
	}
	h := int(hours)
	m := int((hours - float64(h)) * 60)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// NewETA builds the total ETA from restoration hours and crew travel minutes.
func NewETA(restorationHours, travelMinutes float64) ETA {
	hours := restorationHours + travelMinutes/60
	return ETA{Hours: hours, Formatted: FormatDuration(hours)}
}
