package message

import (
	"strconv"

	"github.com/kart-io/pushover/core/api"
	"github.com/kart-io/pushover/core/errors"
)

// Glance represents a compact status payload for small or secondary
// displays such as watch faces. All fields are optional.
type Glance struct {
	title   string
	text    string
	subtext string

	count      int
	hasCount   bool
	percent    int
	hasPercent bool

	response *api.Response
}

// GlanceBuilder assembles a Glance. Truncation and validation happen in
// Build.
type GlanceBuilder struct {
	glance Glance
}

// NewGlanceBuilder creates an empty glance builder.
func NewGlanceBuilder() *GlanceBuilder {
	return &GlanceBuilder{}
}

// Title sets the glance title
func (b *GlanceBuilder) Title(title string) *GlanceBuilder {
	b.glance.title = title
	return b
}

// Text sets the first line of text
func (b *GlanceBuilder) Text(text string) *GlanceBuilder {
	b.glance.text = text
	return b
}

// Subtext sets the second line of text
func (b *GlanceBuilder) Subtext(subtext string) *GlanceBuilder {
	b.glance.subtext = subtext
	return b
}

// Count sets the widget counter. Negative values are allowed.
func (b *GlanceBuilder) Count(count int) *GlanceBuilder {
	b.glance.count = count
	b.glance.hasCount = true
	return b
}

// Percent sets the widget gauge, which must be between 0 and 100.
func (b *GlanceBuilder) Percent(percent int) *GlanceBuilder {
	b.glance.percent = percent
	b.glance.hasPercent = true
	return b
}

// Build truncates the text fields, validates the percent bound and
// returns the transport-valid glance.
func (b *GlanceBuilder) Build() (*Glance, error) {
	g := b.glance

	if g.hasPercent && (g.percent < 0 || g.percent > 100) {
		return nil, errors.ErrInvalidPercent
	}

	g.title = truncate(g.title, MaxGlanceLength)
	g.text = truncate(g.text, MaxGlanceLength)
	g.subtext = truncate(g.subtext, MaxGlanceLength)

	return &g, nil
}

// Endpoint returns the API sub-path for glances.
func (g *Glance) Endpoint() string {
	return "glances.json"
}

// Fields serializes the glance into the form fields expected by the
// glances endpoint. Only fields that were explicitly set are included.
func (g *Glance) Fields() map[string]string {
	fields := make(map[string]string)
	if g.title != "" {
		fields["title"] = g.title
	}
	if g.text != "" {
		fields["text"] = g.text
	}
	if g.subtext != "" {
		fields["subtext"] = g.subtext
	}
	if g.hasCount {
		fields["count"] = strconv.Itoa(g.count)
	}
	if g.hasPercent {
		fields["percent"] = strconv.Itoa(g.percent)
	}
	return fields
}

// Attachment always returns nil; glances do not carry attachments.
func (g *Glance) Attachment() *Attachment {
	return nil
}

// Response returns the API response recorded by the last send of this
// glance, or nil before any send.
func (g *Glance) Response() *api.Response {
	return g.response
}

// SetResponse records the API response after a send. Called by the
// transport client.
func (g *Glance) SetResponse(resp *api.Response) {
	g.response = resp
}

// Title returns the glance title
func (g *Glance) Title() string { return g.title }

// Text returns the first line of text
func (g *Glance) Text() string { return g.text }

// Subtext returns the second line of text
func (g *Glance) Subtext() string { return g.subtext }

// Count returns the widget counter and whether it was set
func (g *Glance) Count() (int, bool) { return g.count, g.hasCount }

// Percent returns the widget gauge and whether it was set
func (g *Glance) Percent() (int, bool) { return g.percent, g.hasPercent }
