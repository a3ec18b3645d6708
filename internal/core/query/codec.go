package query

import (
	"errors"
	"net/url"
	"strings"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

var errUnknownProvider = errors.New("unknown provider")

// Encode renders c as a shareable query string: one key=value pair per
// present predicate the view supports, in canonical field order,
// percent-encoded. c is normalized first, so Decode(Encode(c)) equals
// c.Normalize(). Empty criteria encode to "".
func Encode(c model.FilterCriteria, caps model.Capabilities) string {
	c = c.Normalize()
	var b strings.Builder
	for _, f := range caps.Fields() {
		if !c.Has(f) {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(string(f))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(c.Value(f)))
	}
	return b.String()
}

// Decode parses a query string into criteria. It never fails: unknown keys
// and predicates the view does not support are ignored, malformed values
// are treated as absent and the first occurrence of a repeated key wins.
func Decode(q string, caps model.Capabilities) model.FilterCriteria {
	c, issues := Parse(q, caps)
	for _, err := range issues {
		util.LogDebug("Ignoring query pair", util.F("error", err.Error()))
	}
	return c
}

// Parse is Decode that also returns what was ignored, as
// *model.MalformedQueryError values.
func Parse(q string, caps model.Capabilities) (model.FilterCriteria, []error) {
	var (
		c      model.FilterCriteria
		issues []error
	)
	q = strings.TrimPrefix(strings.TrimSpace(q), "?")
	if q == "" {
		return c, nil
	}

	reject := func(pair, reason string) {
		issues = append(issues, &model.MalformedQueryError{Pair: pair, Reason: reason})
	}

	for _, pair := range strings.Split(q, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			reject(pair, "bad escape in key")
			continue
		}
		f, ok := lookupField(key)
		if !ok {
			reject(pair, "unknown key")
			continue
		}
		if !caps.Supports(f) {
			reject(pair, "not supported by this view")
			continue
		}
		if c.Has(f) {
			reject(pair, "repeated key")
			continue
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			reject(pair, "bad escape in value")
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		next, err := set(c, f, value)
		if err != nil {
			reject(pair, err.Error())
			continue
		}
		c = next
	}
	return c, issues
}

func lookupField(key string) (model.Field, bool) {
	for _, f := range model.AllFields {
		if string(f) == key {
			return f, true
		}
	}
	return "", false
}

func set(c model.FilterCriteria, f model.Field, value string) (model.FilterCriteria, error) {
	switch f {
	case model.FieldProvider:
		p, ok := model.ParseProvider(value)
		if !ok {
			return c, errUnknownProvider
		}
		c.Provider = p
	case model.FieldService:
		c.Service = value
	case model.FieldRegion:
		c.Region = value
	case model.FieldAccountID:
		c.AccountID = value
	case model.FieldStartDate, model.FieldEndDate:
		d, err := model.ParseDate(value)
		if err != nil {
			return c, err
		}
		if f == model.FieldStartDate {
			c.StartDate = d
		} else {
			c.EndDate = d
		}
	}
	return c, nil
}
