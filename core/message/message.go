// Package message builds and validates the payloads accepted by the
// Pushover message and glance endpoints. A value produced by one of the
// builders has already been truncated and validated and is safe to hand
// to the transport layer.
package message

import (
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kart-io/pushover/core/api"
	"github.com/kart-io/pushover/core/errors"
)

// Attachment describes an image file uploaded alongside a message.
type Attachment struct {
	Path string
	MIME string
}

// Message represents a standard push notification. Construct one through
// Builder so the transport-valid invariant holds.
type Message struct {
	text      string
	title     string
	device    string
	url       string
	urlTitle  string
	priority  Priority
	sound     string
	timestamp float64
	retry     time.Duration
	expire    time.Duration

	attachment *Attachment
	response   *api.Response
}

// Builder assembles a Message field by field. Truncation and validation
// happen in Build.
type Builder struct {
	msg        Message
	attachPath string
}

// NewBuilder creates a message builder with the API defaults: normal
// priority, the "pushover" sound, the current time as timestamp and the
// standard emergency retry intervals.
func NewBuilder(text string) *Builder {
	return &Builder{
		msg: Message{
			text:      text,
			priority:  PriorityNormal,
			sound:     "pushover",
			timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
			retry:     DefaultRetry * time.Second,
			expire:    DefaultExpire * time.Second,
		},
	}
}

// Title sets the message title
func (b *Builder) Title(title string) *Builder {
	b.msg.title = title
	return b
}

// Device restricts delivery to a specific device name
func (b *Builder) Device(device string) *Builder {
	b.msg.device = device
	return b
}

// URL sets the supplementary URL
func (b *Builder) URL(url string) *Builder {
	b.msg.url = url
	return b
}

// URLTitle sets the display title for the supplementary URL
func (b *Builder) URLTitle(title string) *Builder {
	b.msg.urlTitle = title
	return b
}

// Priority sets the message priority
func (b *Builder) Priority(p Priority) *Builder {
	b.msg.priority = p
	return b
}

// Sound sets the notification sound
func (b *Builder) Sound(sound string) *Builder {
	b.msg.sound = sound
	return b
}

// Timestamp overrides the displayed message time
func (b *Builder) Timestamp(t time.Time) *Builder {
	b.msg.timestamp = float64(t.UnixNano()) / float64(time.Second)
	return b
}

// UnixTimestamp overrides the displayed message time with a raw unix value
func (b *Builder) UnixTimestamp(ts float64) *Builder {
	b.msg.timestamp = ts
	return b
}

// Retry sets the emergency redelivery interval. Only meaningful at
// PriorityEmergency.
func (b *Builder) Retry(d time.Duration) *Builder {
	b.msg.retry = d
	return b
}

// Expire sets how long emergency redelivery keeps retrying. Only
// meaningful at PriorityEmergency.
func (b *Builder) Expire(d time.Duration) *Builder {
	b.msg.expire = d
	return b
}

// Attachment attaches an image file by path. The file must exist and be
// a jpeg or png image when Build runs.
func (b *Builder) Attachment(path string) *Builder {
	b.attachPath = path
	return b
}

// Build truncates the bounded fields, validates the result and returns
// the transport-valid message.
func (b *Builder) Build() (*Message, error) {
	m := b.msg

	if m.text == "" {
		return nil, errors.ErrEmptyMessage
	}
	if !m.priority.Valid() {
		return nil, errors.ErrInvalidPriority
	}
	if m.sound != "" && !ValidSound(m.sound) {
		return nil, errors.ErrInvalidSound
	}

	if b.attachPath != "" {
		att, err := resolveAttachment(b.attachPath)
		if err != nil {
			return nil, err
		}
		m.attachment = att
	}

	m.text = truncate(m.text, MaxMessageLength)
	m.title = truncate(m.title, MaxTitleLength)
	m.url = truncate(m.url, MaxURLLength)
	m.urlTitle = truncate(m.urlTitle, MaxURLTitleLength)

	return &m, nil
}

// New is a shorthand for NewBuilder(text).Build().
func New(text string) (*Message, error) {
	return NewBuilder(text).Build()
}

// resolveAttachment checks that the file exists and resolves to an
// accepted MIME type by extension.
func resolveAttachment(path string) (*Attachment, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.CodeAttachmentMissing, errors.CategoryValidation,
			"attachment file does not exist", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	// TypeByExtension may append parameters such as "; charset=..."
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !ValidAttachmentType(mimeType) {
		return nil, errors.ErrAttachmentType
	}

	return &Attachment{Path: path, MIME: mimeType}, nil
}

// Endpoint returns the API sub-path for standard messages.
func (m *Message) Endpoint() string {
	return "messages.json"
}

// Fields serializes the message into the form fields expected by the
// messages endpoint. Empty optional fields are omitted; priority and
// timestamp are always included because zero is a legal value for both.
func (m *Message) Fields() map[string]string {
	fields := map[string]string{
		"message":   m.text,
		"priority":  strconv.Itoa(int(m.priority)),
		"timestamp": strconv.FormatFloat(m.timestamp, 'f', -1, 64),
	}
	if m.title != "" {
		fields["title"] = m.title
	}
	if m.device != "" {
		fields["device"] = m.device
	}
	if m.url != "" {
		fields["url"] = m.url
	}
	if m.urlTitle != "" {
		fields["url_title"] = m.urlTitle
	}
	if m.sound != "" {
		fields["sound"] = m.sound
	}
	if m.priority == PriorityEmergency {
		fields["retry"] = strconv.Itoa(int(m.retry / time.Second))
		fields["expire"] = strconv.Itoa(int(m.expire / time.Second))
	}
	return fields
}

// Attachment returns the resolved attachment, or nil when none is set.
func (m *Message) Attachment() *Attachment {
	return m.attachment
}

// Response returns the API response recorded by the last send of this
// message, or nil before any send.
func (m *Message) Response() *api.Response {
	return m.response
}

// SetResponse records the API response after a send. Called by the
// transport client.
func (m *Message) SetResponse(resp *api.Response) {
	m.response = resp
}

// Text returns the message text
func (m *Message) Text() string { return m.text }

// Title returns the message title
func (m *Message) Title() string { return m.title }

// Device returns the target device name
func (m *Message) Device() string { return m.device }

// URL returns the supplementary URL
func (m *Message) URL() string { return m.url }

// URLTitle returns the supplementary URL title
func (m *Message) URLTitle() string { return m.urlTitle }

// Priority returns the message priority
func (m *Message) Priority() Priority { return m.priority }

// Sound returns the notification sound
func (m *Message) Sound() string { return m.sound }

// Timestamp returns the unix timestamp displayed with the message
func (m *Message) Timestamp() float64 { return m.timestamp }

// Retry returns the emergency redelivery interval
func (m *Message) Retry() time.Duration { return m.retry }

// Expire returns the emergency redelivery window
func (m *Message) Expire() time.Duration { return m.expire }
