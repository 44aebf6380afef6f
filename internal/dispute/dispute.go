package dispute

// Kind is the event kind carrying dispute state changes.
const Kind = 38386

// Recognized status values. Matching is byte-exact; anything else falls into
// the Other gate.
const (
	StatusInitiated      = "initiated"
	StatusInProgress     = "in-progress"
	StatusSellerRefunded = "seller-refunded"
	StatusSettled        = "settled"
	StatusReleased       = "released"
)

// unknown substitutes for any field absent from an event's tags.
const unknown = "unknown"

// Event is one dispute state change extracted from an upstream event.
type Event struct {
	ID        string
	Status    string
	Initiator string
	CreatedAt int64 // unix seconds
}

// ParseEvent builds an Event from an upstream event's tag list. A tag
// qualifies only if it has at least two elements: the first is the key, the
// second the value. Keys "d", "s" and "initiator" map to ID, Status and
// Initiator; a repeated key overwrites the earlier value. Missing fields
// default to "unknown". ParseEvent cannot fail; an empty or malformed tag
// list yields all defaults.
func ParseEvent(tags [][]string, createdAt int64) Event {
	ev := Event{
		ID:        unknown,
		Status:    unknown,
		Initiator: unknown,
		CreatedAt: createdAt,
	}
	for _, tag := range tags {
		if len(tag) < 2 {
			continue
		}
		switch tag[0] {
		case "d":
			ev.ID = tag[1]
		case "s":
			ev.Status = tag[1]
		case "initiator":
			ev.Initiator = tag[1]
		}
	}
	return ev
}

// Gates holds the per-status alert switches. Other covers every status
// outside the five recognized values, the empty string included.
type Gates struct {
	Initiated      bool `yaml:"initiated"`
	InProgress     bool `yaml:"in_progress"`
	SellerRefunded bool `yaml:"seller_refunded"`
	Settled        bool `yaml:"settled"`
	Released       bool `yaml:"released"`
	Other          bool `yaml:"other"`
}

// AllEnabled returns a Gates with every switch on, the configuration
// default.
func AllEnabled() Gates {
	return Gates{
		Initiated:      true,
		InProgress:     true,
		SellerRefunded: true,
		Settled:        true,
		Released:       true,
		Other:          true,
	}
}

// Enabled reports whether an alert for status should be sent.
func (g Gates) Enabled(status string) bool {
	switch status {
	case StatusInitiated:
		return g.Initiated
	case StatusInProgress:
		return g.InProgress
	case StatusSellerRefunded:
		return g.SellerRefunded
	case StatusSettled:
		return g.Settled
	case StatusReleased:
		return g.Released
	default:
		return g.Other
	}
}
