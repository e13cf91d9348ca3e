package item

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("item not found")
	ErrInvalidModel = errors.New("unknown model")
)

// Attributes is the collection specific part of an item. The core never
// looks inside it.
type Attributes map[string]any

// Item is one record of a model collection. On the wire the attributes are
// flattened next to id and the timestamps.
type Item struct {
	ID         string
	Attributes Attributes
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// reserved keys are owned by the store and never taken from a payload
var reserved = map[string]struct{}{
	"id":        {},
	"createdAt": {},
	"updatedAt": {},
}

// Clean copies attrs without the store owned keys.
func Clean(attrs Attributes) Attributes {
	out := make(Attributes, len(attrs))
	for k, v := range attrs {
		if _, ok := reserved[k]; ok {
			continue
		}
		out[k] = v
	}
	return out
}

func (i Item) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(i.Attributes)+3)
	for k, v := range i.Attributes {
		obj[k] = v
	}
	obj["id"] = i.ID
	obj["createdAt"] = i.CreatedAt
	obj["updatedAt"] = i.UpdatedAt

	return json.Marshal(obj)
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if id, ok := raw["id"].(string); ok {
		i.ID = id
	}
	for key, dst := range map[string]*time.Time{"createdAt": &i.CreatedAt, "updatedAt": &i.UpdatedAt} {
		if s, ok := raw[key].(string); ok {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return err
			}
			*dst = t
		}
	}
	i.Attributes = Clean(raw)

	return nil
}
