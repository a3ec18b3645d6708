package model

import "strings"

// FilterCriteria holds the active predicates of a view. A zero field means
// the predicate is absent. Criteria values are compared with ==.
type FilterCriteria struct {
	Provider  Provider `json:"provider,omitempty"`
	Service   string   `json:"service,omitempty"`
	Region    string   `json:"region,omitempty"`
	AccountID string   `json:"account_id,omitempty"`
	StartDate Date     `json:"start_date"`
	EndDate   Date     `json:"end_date"`
}

// IsEmpty reports whether no predicate is set.
func (c FilterCriteria) IsEmpty() bool {
	return c == FilterCriteria{}
}

// Normalize trims surrounding whitespace from the string predicates. A
// predicate left blank becomes absent. Views and the query codec only
// handle normalized criteria.
func (c FilterCriteria) Normalize() FilterCriteria {
	c.Provider = Provider(strings.TrimSpace(string(c.Provider)))
	c.Service = strings.TrimSpace(c.Service)
	c.Region = strings.TrimSpace(c.Region)
	c.AccountID = strings.TrimSpace(c.AccountID)
	return c
}

// Has reports whether the predicate for f is present.
func (c FilterCriteria) Has(f Field) bool {
	switch f {
	case FieldProvider:
		return c.Provider != ""
	case FieldService:
		return c.Service != ""
	case FieldRegion:
		return c.Region != ""
	case FieldAccountID:
		return c.AccountID != ""
	case FieldStartDate:
		return !c.StartDate.IsZero()
	case FieldEndDate:
		return !c.EndDate.IsZero()
	}
	return false
}

// Value returns the string form of the predicate for f ("" if absent).
func (c FilterCriteria) Value(f Field) string {
	switch f {
	case FieldProvider:
		return string(c.Provider)
	case FieldService:
		return c.Service
	case FieldRegion:
		return c.Region
	case FieldAccountID:
		return c.AccountID
	case FieldStartDate:
		return c.StartDate.String()
	case FieldEndDate:
		return c.EndDate.String()
	}
	return ""
}

// Restrict returns a copy keeping only the predicates named in fields.
func (c FilterCriteria) Restrict(fields []Field) FilterCriteria {
	var out FilterCriteria
	for _, f := range fields {
		switch f {
		case FieldProvider:
			out.Provider = c.Provider
		case FieldService:
			out.Service = c.Service
		case FieldRegion:
			out.Region = c.Region
		case FieldAccountID:
			out.AccountID = c.AccountID
		case FieldStartDate:
			out.StartDate = c.StartDate
		case FieldEndDate:
			out.EndDate = c.EndDate
		}
	}
	return out
}

// Merge overlays the present predicates of o onto c.
func (c FilterCriteria) Merge(o FilterCriteria) FilterCriteria {
	for _, f := range AllFields {
		if o.Has(f) {
			c = c.set(f, o)
		}
	}
	return c
}

func (c FilterCriteria) set(f Field, from FilterCriteria) FilterCriteria {
	switch f {
	case FieldProvider:
		c.Provider = from.Provider
	case FieldService:
		c.Service = from.Service
	case FieldRegion:
		c.Region = from.Region
	case FieldAccountID:
		c.AccountID = from.AccountID
	case FieldStartDate:
		c.StartDate = from.StartDate
	case FieldEndDate:
		c.EndDate = from.EndDate
	}
	return c
}

// Matches reports whether r satisfies every present predicate.
func (c FilterCriteria) Matches(r CostRecord) bool {
	if c.Provider != "" && r.Provider != c.Provider {
		return false
	}
	if c.Service != "" && r.Service != c.Service {
		return false
	}
	if c.Region != "" && r.Region != c.Region {
		return false
	}
	if c.AccountID != "" && r.AccountID != c.AccountID {
		return false
	}
	if !c.StartDate.IsZero() && r.Date.Before(c.StartDate) {
		return false
	}
	if !c.EndDate.IsZero() && r.Date.After(c.EndDate) {
		return false
	}
	return true
}
