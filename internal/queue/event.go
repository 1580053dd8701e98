// Package queue defines message payloads exchanged over the message broker.
package queue

// ChannelEndedEvent is published when a host ends a live channel. It carries
// enough context for downstream consumers to log or notify without querying
// the primary database.
type ChannelEndedEvent struct {
	ChannelID    uint64 `json:"channel_id"`
	HostID       uint64 `json:"host_id"`
	Name         string `json:"name"`
	Participants int64  `json:"participants"`
	StartedAt    string `json:"started_at"`
	EndedAt      string `json:"ended_at"`
}

// VendorAddedEvent is published when a shop owner grants vendor access.
type VendorAddedEvent struct {
	ShopID  uint64 `json:"shop_id"`
	UserID  uint64 `json:"user_id"`
	AddedBy uint64 `json:"added_by"`
}
