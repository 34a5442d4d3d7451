// Package tracking derives the delivery progress of an ordered product from
// its order time and estimated delivery time.
package tracking

import "time"

const day = 24 * time.Hour

// Stage names as shown on the progress labels.
const (
	StagePreparing = "Preparing"
	StageShipped   = "Shipped"
	StageDelivered = "Delivered"
)

// Status is the three-stage delivery progress. Preparing is true whenever
// tracking data exists.
type Status struct {
	Preparing bool `json:"preparing"`
	Shipped   bool `json:"shipped"`
	Delivered bool `json:"delivered"`
}

// DeliveryStatus compares the whole days passed since the order against the
// whole days between the order and its estimated delivery. Half way there
// counts as shipped.
func DeliveryStatus(orderTime, estimatedDelivery, now time.Time) Status {
	total := wholeDays(estimatedDelivery.Sub(orderTime))
	passed := wholeDays(now.Sub(orderTime))
	switch {
	case passed >= total:
		return Status{Preparing: true, Shipped: true, Delivered: true}
	case float64(passed) >= float64(total)/2:
		return Status{Preparing: true, Shipped: true}
	default:
		return Status{Preparing: true}
	}
}

// wholeDays truncates toward zero.
func wholeDays(d time.Duration) int64 {
	return int64(d / day)
}

// ProgressPercent is the width of the progress bar.
func (s Status) ProgressPercent() int {
	switch {
	case s.Delivered:
		return 100
	case s.Shipped:
		return 50
	default:
		return 0
	}
}

// Current reports whether stage is highlighted. Preparing stays highlighted
// once tracking data exists; shipped is highlighted only until delivery.
func (s Status) Current(stage string) bool {
	switch stage {
	case StagePreparing:
		return s.Preparing
	case StageShipped:
		return s.Shipped && !s.Delivered
	case StageDelivered:
		return s.Delivered
	}
	return false
}

// Label is one progress label of the tracking view.
type Label struct {
	Name    string `json:"name"`
	Current bool   `json:"current"`
}

// Labels lists the progress labels in display order.
func (s Status) Labels() []Label {
	return []Label{
		{Name: StagePreparing, Current: s.Current(StagePreparing)},
		{Name: StageShipped, Current: s.Current(StageShipped)},
		{Name: StageDelivered, Current: s.Current(StageDelivered)},
	}
}
