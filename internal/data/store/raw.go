package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
)

// RawValue is a JSON scalar kept as text. Strings, numbers and booleans are
// accepted; null and a missing key both leave Set false.
type RawValue struct {
	Text string
	Set  bool
}

// V builds a set RawValue.
func V(s string) RawValue {
	return RawValue{Text: s, Set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = RawValue{}
		return nil
	case data[0] == '"':
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = V(s)
		return nil
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("expected scalar, got %s", string(data[:1]))
	default:
		*v = V(string(data))
		return nil
	}
}

// MarshalJSON writes the text as a JSON string, or null when unset.
func (v RawValue) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return sonic.Marshal(v.Text)
}

// RawRecord is a cost record as received from a backend or file, before
// validation. Keys follow the backend's snake_case JSON.
type RawRecord struct {
	Provider  RawValue `json:"provider"`
	Service   RawValue `json:"service"`
	Region    RawValue `json:"region"`
	AccountID RawValue `json:"account_id"`
	UsageType RawValue `json:"usage_type"`
	Date      RawValue `json:"date"`
	CostUSD   RawValue `json:"cost_usd"`

	// decodeErr marks an array element that was not a valid object.
	decodeErr error
}

// FromMap builds a RawRecord from column name → value pairs, as read from
// CSV exports. Empty values count as absent.
func FromMap(m map[string]string) RawRecord {
	get := func(keys ...string) RawValue {
		for _, k := range keys {
			if s, ok := m[k]; ok && s != "" {
				return V(s)
			}
		}
		return RawValue{}
	}
	return RawRecord{
		Provider:  get("provider"),
		Service:   get("service"),
		Region:    get("region"),
		AccountID: get("account_id", "account"),
		UsageType: get("usage_type"),
		Date:      get("date"),
		CostUSD:   get("cost_usd", "cost"),
	}
}

// ToRaw converts a normalized record back to its raw form.
func ToRaw(r model.CostRecord) RawRecord {
	opt := func(s string) RawValue {
		if s == "" {
			return RawValue{}
		}
		return V(s)
	}
	return RawRecord{
		Provider:  opt(string(r.Provider)),
		Service:   V(r.Service),
		Region:    opt(r.Region),
		AccountID: opt(r.AccountID),
		UsageType: opt(r.UsageType),
		Date:      V(r.Date.String()),
		CostUSD:   V(r.CostUSD.String()),
	}
}

// DecodeArray decodes a JSON array of raw cost records. A body that is not
// a JSON array is an error; an element that is not a valid record object is
// kept as a marked record so Ingest drops and counts it like any other
// malformed row.
func DecodeArray(data []byte) ([]RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array of cost records")
	}

	var elems []json.RawMessage
	if err := sonic.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("failed to decode cost records: %w", err)
	}

	records := make([]RawRecord, len(elems))
	for i, elem := range elems {
		if err := sonic.Unmarshal(elem, &records[i]); err != nil {
			records[i] = RawRecord{decodeErr: err}
			continue
		}
		if bytes.HasPrefix(bytes.TrimSpace(elem), []byte("null")) {
			records[i] = RawRecord{decodeErr: fmt.Errorf("null element")}
		}
	}
	return records, nil
}
