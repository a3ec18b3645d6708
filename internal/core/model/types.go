package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CostRecord is a single normalized billing line.
type CostRecord struct {
	Provider  Provider        `json:"provider,omitempty"`
	Service   string          `json:"service"`
	Region    string          `json:"region,omitempty"`
	AccountID string          `json:"account_id,omitempty"`
	UsageType string          `json:"usage_type,omitempty"`
	Date      Date            `json:"date"`
	CostUSD   decimal.Decimal `json:"cost_usd"`
}

// keySep cannot appear in a trimmed field value coming from JSON or CSV.
const keySep = "\x1f"

// Key is the identity key used for deduplication: every stored field in a
// fixed order, with the cost in its canonical decimal form so that 10 and
// 10.00 collide.
func (r CostRecord) Key() string {
	var b strings.Builder
	b.WriteString(string(r.Provider))
	for _, part := range []string{r.Service, r.Region, r.AccountID, r.UsageType, r.Date.String(), r.CostUSD.String()} {
		b.WriteString(keySep)
		b.WriteString(part)
	}
	return b.String()
}

// Dimension is a record field that projections can group by.
type Dimension string

const (
	DimProvider  Dimension = "provider"
	DimService   Dimension = "service"
	DimRegion    Dimension = "region"
	DimAccount   Dimension = "account"
	DimUsageType Dimension = "usage_type"
	DimDate      Dimension = "date"
)

var dimensionAliases = map[string]Dimension{
	"provider":   DimProvider,
	"service":    DimService,
	"region":     DimRegion,
	"account":    DimAccount,
	"account_id": DimAccount,
	"usage_type": DimUsageType,
	"usage":      DimUsageType,
	"date":       DimDate,
	"day":        DimDate,
}

// ParseDimension resolves a user-supplied dimension name.
func ParseDimension(s string) (Dimension, error) {
	if d, ok := dimensionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// Label is the column heading for the dimension.
func (d Dimension) Label() string {
	switch d {
	case DimProvider:
		return "Provider"
	case DimService:
		return "Service"
	case DimRegion:
		return "Region"
	case DimAccount:
		return "Account"
	case DimUsageType:
		return "Usage Type"
	case DimDate:
		return "Date"
	}
	return string(d)
}

// Value extracts the dimension's value from a record.
func (d Dimension) Value(r CostRecord) string {
	switch d {
	case DimProvider:
		return string(r.Provider)
	case DimService:
		return r.Service
	case DimRegion:
		return r.Region
	case DimAccount:
		return r.AccountID
	case DimUsageType:
		return r.UsageType
	case DimDate:
		return r.Date.String()
	}
	return ""
}

// GroupKey is one dimension or a composite of several.
type GroupKey []Dimension

// ParseGroupKey parses "service" or "service,region".
func ParseGroupKey(s string) (GroupKey, error) {
	parts := strings.Split(s, ",")
	key := make(GroupKey, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		d, err := ParseDimension(p)
		if err != nil {
			return nil, err
		}
		key = append(key, d)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("empty group key %q", s)
	}
	return key, nil
}

// ID identifies r's group. Distinct value tuples always get distinct IDs,
// which Value does not guarantee once a value contains " / ".
func (k GroupKey) ID(r CostRecord) string {
	if len(k) == 1 {
		return k[0].Value(r)
	}
	parts := make([]string, len(k))
	for i, d := range k {
		parts[i] = d.Value(r)
	}
	return strings.Join(parts, keySep)
}

// Value joins the key's dimension values with " / " for display.
func (k GroupKey) Value(r CostRecord) string {
	if len(k) == 1 {
		return k[0].Value(r)
	}
	parts := make([]string, len(k))
	for i, d := range k {
		parts[i] = d.Value(r)
	}
	return strings.Join(parts, " / ")
}

// Label is the column heading for the key.
func (k GroupKey) Label() string {
	parts := make([]string, len(k))
	for i, d := range k {
		parts[i] = d.Label()
	}
	return strings.Join(parts, " / ")
}

func (k GroupKey) String() string {
	parts := make([]string, len(k))
	for i, d := range k {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}
