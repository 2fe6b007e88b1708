// Package api defines the wire-level response structures returned by the
// Pushover REST API.
package api

import "time"

// Response represents the common response envelope returned by the message,
// glance and user validation endpoints.
type Response struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Receipt string   `json:"receipt,omitempty"`
	Errors  []string `json:"errors,omitempty"`

	// HTTPStatus and Raw retain the transport-level response for callers
	// that need more than the decoded envelope.
	HTTPStatus int    `json:"-"`
	Raw        []byte `json:"-"`
}

// OK reports whether the API accepted the request.
func (r *Response) OK() bool {
	return r != nil && r.Status == 1
}

// Limits represents the application quota returned by the limits endpoint.
type Limits struct {
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Reset     int64  `json:"reset"`
	Status    int    `json:"status"`
	Request   string `json:"request"`
}

// ResetTime returns the time at which the monthly quota resets.
func (l *Limits) ResetTime() time.Time {
	return time.Unix(l.Reset, 0)
}

// ReceiptStatus represents the delivery state of an emergency-priority
// message as returned by the receipts endpoint.
type ReceiptStatus struct {
	Status          int    `json:"status"`
	Request         string `json:"request"`
	Acknowledged    int    `json:"acknowledged"`
	AcknowledgedAt  int64  `json:"acknowledged_at"`
	AcknowledgedBy  string `json:"acknowledged_by"`
	LastDeliveredAt int64  `json:"last_delivered_at"`
	Expired         int    `json:"expired"`
	ExpiresAt       int64  `json:"expires_at"`
	CalledBack      int    `json:"called_back"`
	CalledBackAt    int64  `json:"called_back_at"`
}

// IsAcknowledged reports whether the receiving user acknowledged the message.
func (rs *ReceiptStatus) IsAcknowledged() bool {
	return rs.Acknowledged == 1
}

// IsExpired reports whether the emergency retry window has expired.
func (rs *ReceiptStatus) IsExpired() bool {
	return rs.Expired == 1
}
