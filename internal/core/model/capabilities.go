package model

import "fmt"

// Profile names one of the built-in view shapes.
type Profile string

const (
	ProfileUnified Profile = "unified"
	ProfileAWS     Profile = "aws"
	ProfileAzure   Profile = "azure"
	ProfileGCP     Profile = "gcp"
)

// Capabilities describes which record fields a view carries. A single
// engine instance is parameterized by it instead of one copy per provider.
type Capabilities struct {
	Profile      Profile
	HasProvider  bool
	HasRegion    bool
	HasAccount   bool
	HasUsageType bool
	// FixedProvider is stamped on records of single-provider views.
	FixedProvider Provider
}

// CapabilitiesFor returns the capability set of a built-in profile.
func CapabilitiesFor(p Profile) (Capabilities, error) {
	switch p {
	case ProfileUnified, "":
		return Capabilities{Profile: ProfileUnified, HasProvider: true}, nil
	case ProfileAWS:
		return Capabilities{
			Profile:       ProfileAWS,
			HasRegion:     true,
			HasAccount:    true,
			HasUsageType:  true,
			FixedProvider: ProviderAWS,
		}, nil
	case ProfileAzure:
		return Capabilities{Profile: ProfileAzure, HasRegion: true, FixedProvider: ProviderAzure}, nil
	case ProfileGCP:
		return Capabilities{Profile: ProfileGCP, HasRegion: true, FixedProvider: ProviderGCP}, nil
	}
	return Capabilities{}, fmt.Errorf("unknown profile %q", p)
}

// Fields lists the filterable predicates of the view in canonical order.
func (c Capabilities) Fields() []Field {
	fields := make([]Field, 0, len(AllFields))
	for _, f := range AllFields {
		if c.Supports(f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// Supports reports whether predicate f applies to this view.
func (c Capabilities) Supports(f Field) bool {
	switch f {
	case FieldProvider:
		return c.HasProvider
	case FieldRegion:
		return c.HasRegion
	case FieldAccountID:
		return c.HasAccount
	}
	return true
}

// Columns lists the record dimensions shown in tables.
func (c Capabilities) Columns() []Dimension {
	cols := make([]Dimension, 0, 6)
	if c.HasProvider {
		cols = append(cols, DimProvider)
	}
	cols = append(cols, DimDate, DimService)
	if c.HasRegion {
		cols = append(cols, DimRegion)
	}
	if c.HasAccount {
		cols = append(cols, DimAccount)
	}
	if c.HasUsageType {
		cols = append(cols, DimUsageType)
	}
	return cols
}

// SeriesDimension is the default secondary dimension for chart
// projections: provider on the unified view, none on single-provider views.
func (c Capabilities) SeriesDimension() *Dimension {
	if c.HasProvider {
		d := DimProvider
		return &d
	}
	return nil
}
