package model

import "strings"

// Provider identifies the cloud a billing line comes from.
type Provider string

// Provider identifiers
const (
	ProviderAWS   Provider = "AWS"
	ProviderAzure Provider = "Azure"
	ProviderGCP   Provider = "GCP"
)

// Providers lists the known providers in display order.
var Providers = []Provider{ProviderAWS, ProviderAzure, ProviderGCP}

// ParseProvider matches s against the known providers, ignoring case.
func ParseProvider(s string) (Provider, bool) {
	s = strings.TrimSpace(s)
	for _, p := range Providers {
		if strings.EqualFold(s, string(p)) {
			return p, true
		}
	}
	return "", false
}

// Slug returns the lower-case route segment for the provider ("aws", "azure", "gcp").
func (p Provider) Slug() string {
	return strings.ToLower(string(p))
}

// Query field names, in canonical encoding order.
const (
	FieldProvider  Field = "provider"
	FieldService   Field = "service"
	FieldRegion    Field = "region"
	FieldAccountID Field = "account_id"
	FieldStartDate Field = "start_date"
	FieldEndDate   Field = "end_date"
)

// Field names a filterable predicate of FilterCriteria.
type Field string

// AllFields is the canonical predicate order used by the query codec.
var AllFields = []Field{
	FieldProvider,
	FieldService,
	FieldRegion,
	FieldAccountID,
	FieldStartDate,
	FieldEndDate,
}

// DefaultBatchSize is the number of records revealed per pagination step.
const DefaultBatchSize = 100
