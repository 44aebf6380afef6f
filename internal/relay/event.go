package relay

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event is one event as delivered by a relay (NIP-01 wire shape). Signature
// verification is out of scope; events are trusted at this boundary.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Filter selects which events a subscription delivers.
type Filter struct {
	Kinds   []int    `json:"kinds,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Since   int64    `json:"since,omitempty"`
}

// frame is one decoded relay-to-client message.
type frame struct {
	Label  string
	Event  *Event // set for EVENT frames
	Notice string // set for NOTICE frames
}

// parseFrame decodes a relay-to-client message: a JSON array whose first
// element labels the frame type. EVENT frames carry the event as the third
// element, NOTICE frames a message as the second; anything else is passed
// through with just its label (EOSE, OK, ...).
func parseFrame(data []byte) (frame, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return frame{}, fmt.Errorf("relay: malformed frame: %w", err)
	}
	if len(raw) == 0 {
		return frame{}, errors.New("relay: empty frame")
	}

	var f frame
	if err := json.Unmarshal(raw[0], &f.Label); err != nil {
		return frame{}, fmt.Errorf("relay: frame label: %w", err)
	}

	switch f.Label {
	case "EVENT":
		if len(raw) < 3 {
			return frame{}, errors.New("relay: EVENT frame missing payload")
		}
		f.Event = new(Event)
		if err := json.Unmarshal(raw[2], f.Event); err != nil {
			return frame{}, fmt.Errorf("relay: EVENT payload: %w", err)
		}
	case "NOTICE":
		if len(raw) >= 2 {
			// Best effort; a malformed notice is still a valid frame.
			json.Unmarshal(raw[1], &f.Notice) //nolint:errcheck
		}
	}
	return f, nil
}
