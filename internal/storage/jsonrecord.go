package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robertguss/factorydesk/internal/domain"
)

// Keys of the orders file owned by this package. Anything else in a record
// belongs to the web app and is written back untouched.
const (
	keyID              = "id"
	keyCustomerName    = "customerName"
	keyProduct         = "product"
	keyQuantity        = "quantity"
	keyCompletedStages = "completedStages"
	keyTimelineNotes   = "timelineNotes"
	keyStatus          = "status"
	keyLastUpdated     = "lastUpdated"
	keyCreatedAt       = "createdAt"
)

// jsonRecord is one element of the orders array. data holds the original
// bytes and is reused on write until the record is modified.
type jsonRecord struct {
	data   json.RawMessage
	fields map[string]json.RawMessage
	order  *domain.Order
	dirty  bool
}

// decodeRecord never fails: elements that are not objects, or have no usable
// id, are kept for writing back but are invisible to queries.
func decodeRecord(data json.RawMessage) *jsonRecord {
	rec := &jsonRecord{data: data}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return rec
	}
	rec.fields = fields

	id := looseString(fields[keyID])
	if id == "" {
		return rec
	}

	o := &domain.Order{
		ID:            id,
		CustomerName:  looseString(fields[keyCustomerName]),
		Product:       looseString(fields[keyProduct]),
		Quantity:      looseInt(fields[keyQuantity]),
		TimelineNotes: looseNotes(fields[keyTimelineNotes]),
		Status:        domain.OrderStatus(looseString(fields[keyStatus])),
		LastUpdated:   looseTime(fields[keyLastUpdated]),
		CreatedAt:     looseTime(fields[keyCreatedAt]),
	}
	if raw, ok := fields[keyCompletedStages]; ok {
		// A malformed stage list reads as empty
		_ = o.CompletedStages.UnmarshalJSON(raw)
	}

	rec.order = o
	return rec
}

// newRecord encodes a freshly created order
func newRecord(o *domain.Order) (*jsonRecord, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}
	return &jsonRecord{data: data, fields: fields, order: o.Clone()}, nil
}

// apply merges the patch into the decoded order and rewrites only the keys
// the patch sets
func (r *jsonRecord) apply(patch domain.OrderPatch) error {
	patch.ApplyTo(r.order)

	set := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		r.fields[key] = raw
		r.dirty = true
		return nil
	}

	if patch.CompletedStages != nil {
		if err := set(keyCompletedStages, r.order.CompletedStages); err != nil {
			return err
		}
	}
	if patch.Status != nil {
		if err := set(keyStatus, r.order.Status); err != nil {
			return err
		}
	}
	if patch.LastUpdated != nil {
		if err := set(keyLastUpdated, r.order.LastUpdated); err != nil {
			return err
		}
	}
	if patch.TimelineNotes != nil {
		if err := set(keyTimelineNotes, r.order.TimelineNotes); err != nil {
			return err
		}
	}
	return nil
}

func (r *jsonRecord) encode() (json.RawMessage, error) {
	if !r.dirty {
		return r.data, nil
	}
	data, err := json.Marshal(r.fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order %s: %w", r.order.ID, err)
	}
	return data, nil
}

// looseString accepts a string or a number
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// looseInt accepts a number or a numeric string
func looseInt(raw json.RawMessage) int {
	s := looseString(raw)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// looseNotes keeps the string-valued entries of a notes object
func looseNotes(raw json.RawMessage) map[string]string {
	notes := make(map[string]string)
	if len(raw) == 0 {
		return notes
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return notes
	}
	for k, v := range entries {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			notes[k] = s
		}
	}
	return notes
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// looseTime accepts RFC 3339 and plain date strings, or epoch milliseconds.
// Anything else, including "", is the zero time.
func looseTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
		return time.Time{}
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if ms, err := n.Int64(); err == nil {
			return time.UnixMilli(ms).UTC()
		}
	}
	return time.Time{}
}
