// Package pushover is a minimal client library for the Pushover
// push-notification HTTP API. It builds and validates the two payload
// kinds the API accepts, standard messages and glances, and sends them
// with synchronous HTTP calls.
//
// Basic usage:
//
//	client, err := pushover.NewClient(userKey, apiToken)
//	if err != nil {
//		return err
//	}
//
//	msg, err := pushover.NewMessage("backup finished").
//		Title("nightly backup").
//		Sound("magic").
//		Build()
//	if err != nil {
//		return err
//	}
//
//	resp, err := client.Send(ctx, msg)
//
// Emergency-priority messages return a receipt id that can be polled
// through Client.Receipt. The client records the last sent payload so
// Receipt can be called with an empty id right after an emergency send.
package pushover

import (
	"github.com/kart-io/pushover/core/api"
	"github.com/kart-io/pushover/core/message"
)

// Re-exported payload and wire types so most callers only need this
// package.
type (
	Message       = message.Message
	Glance        = message.Glance
	Attachment    = message.Attachment
	Priority      = message.Priority
	Response      = api.Response
	Limits        = api.Limits
	ReceiptStatus = api.ReceiptStatus
)

// Priority levels accepted by the API.
const (
	PriorityLowest    = message.PriorityLowest
	PriorityLow       = message.PriorityLow
	PriorityNormal    = message.PriorityNormal
	PriorityHigh      = message.PriorityHigh
	PriorityEmergency = message.PriorityEmergency
)

// NewMessage starts a message builder for the given text.
func NewMessage(text string) *message.Builder {
	return message.NewBuilder(text)
}

// NewGlance starts a glance builder.
func NewGlance() *message.GlanceBuilder {
	return message.NewGlanceBuilder()
}
