package message

import "unicode/utf8"

// Priority represents the notification priority level
type Priority int

const (
	// PriorityLowest delivers silently, without sound or vibration
	PriorityLowest Priority = -2
	// PriorityLow delivers without sound during the user's quiet hours
	PriorityLow Priority = -1
	// PriorityNormal is the default delivery behavior
	PriorityNormal Priority = 0
	// PriorityHigh bypasses the user's quiet hours
	PriorityHigh Priority = 1
	// PriorityEmergency repeats until acknowledged and returns a receipt
	PriorityEmergency Priority = 2
)

// Valid reports whether the priority is one of the defined levels.
func (p Priority) Valid() bool {
	return p >= PriorityLowest && p <= PriorityEmergency
}

// Sounds lists the notification sounds accepted by the API.
var Sounds = []string{
	"pushover",
	"bike",
	"bugle",
	"cashregister",
	"classical",
	"cosmic",
	"falling",
	"gamelan",
	"incoming",
	"intermission",
	"magic",
	"mechanic",
	"pianobar",
	"siren",
	"spacealarm",
	"tugboat",
	"alien",
	"climb",
	"persistent",
	"echo",
	"updown",
	"vibrate",
	"none",
}

// AttachmentTypes lists the MIME types accepted for message attachments.
var AttachmentTypes = []string{
	"image/jpeg",
	"image/png",
}

// Field length limits imposed by the API
const (
	MaxMessageLength  = 4096
	MaxTitleLength    = 250
	MaxURLLength      = 512
	MaxURLTitleLength = 100
	MaxGlanceLength   = 100
)

// Emergency retry defaults (seconds)
const (
	DefaultRetry  = 30
	DefaultExpire = 10800
)

// ValidSound reports whether name is an accepted notification sound.
func ValidSound(name string) bool {
	for _, s := range Sounds {
		if s == name {
			return true
		}
	}
	return false
}

// ValidAttachmentType reports whether mimeType is accepted for attachments.
func ValidAttachmentType(mimeType string) bool {
	for _, t := range AttachmentTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

// truncate cuts s at limit characters without rejecting over-long input.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
