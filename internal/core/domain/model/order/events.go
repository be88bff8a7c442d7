package order

// EventName identifies a lifecycle event on an order's live channel.
type EventName string

const (
	EventOrderConfirmed     EventName = "orderConfirmed"
	EventLiveTrackingUpdate EventName = "liveTrackingUpdate"
	EventOrderStatusUpdated EventName = "orderStatusUpdated"
)

func (n EventName) String() string {
	return string(n)
}

// Event is recorded by the aggregate on every successful transition and
// carries the full order as it was right after the transition.
type Event struct {
	Name  EventName
	Order Snapshot
}
