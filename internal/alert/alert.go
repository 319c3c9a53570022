// Package alert decodes inbound webhook bodies into RawAlert values.
package alert

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrEmpty is returned for a body with no content.
var ErrEmpty = errors.New("alert: empty payload")

// Fields is the structured alert shape. Every key is optional.
type Fields struct {
	Ticker    string `json:"ticker,omitempty"`
	Action    string `json:"action,omitempty"`
	Price     string `json:"price,omitempty"`
	Time      string `json:"time,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	Strength  string `json:"strength,omitempty"`
	Details   string `json:"details,omitempty"`
}

// RawAlert is either structured (Fields set) or free text.
type RawAlert struct {
	Structured bool
	Fields     Fields
	text       string
}

// FromText wraps free text as an alert.
func FromText(s string) RawAlert {
	return RawAlert{text: s}
}

// Text returns the alert as one string so text rules apply uniformly.
// Structured alerts are re-serialized with a stable key order.
func (a RawAlert) Text() string {
	if !a.Structured {
		return a.text
	}
	b, err := json.Marshal(a.Fields)
	if err != nil {
		return a.text
	}
	return string(b)
}

// Original returns the body as received.
func (a RawAlert) Original() string {
	return a.text
}

// Parse decodes a webhook body. A JSON object (declared by content type or
// detected from the body) becomes a structured alert; anything else,
// including malformed JSON, is kept as text.
func Parse(body []byte, contentType string) (RawAlert, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return RawAlert{}, ErrEmpty
	}
	text := string(trimmed)

	if strings.Contains(contentType, "json") || trimmed[0] == '{' {
		if f, ok := decodeFields(trimmed); ok {
			return RawAlert{Structured: true, Fields: f, text: text}, nil
		}
	}
	return RawAlert{text: text}, nil
}

// decodeFields accepts string or numeric values; TradingView placeholders
// such as {{close}} arrive unquoted when the alert template omits quotes.
func decodeFields(b []byte) (Fields, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return Fields{}, false
	}
	var f Fields
	targets := map[string]*string{
		"ticker":    &f.Ticker,
		"action":    &f.Action,
		"price":     &f.Price,
		"time":      &f.Time,
		"timeframe": &f.Timeframe,
		"strength":  &f.Strength,
		"details":   &f.Details,
	}
	for k, raw := range m {
		dst, ok := targets[strings.ToLower(k)]
		if !ok {
			continue
		}
		*dst = scalar(raw)
	}
	return f, true
}

func scalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}
