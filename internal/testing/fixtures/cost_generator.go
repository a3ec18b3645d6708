package fixtures

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CostEntry is one billing line in the backend's JSON shape
type CostEntry struct {
	Provider  string  `json:"provider,omitempty"`
	Service   string  `json:"service"`
	Region    string  `json:"region,omitempty"`
	AccountID string  `json:"account_id,omitempty"`
	UsageType string  `json:"usage_type,omitempty"`
	Date      string  `json:"date"`
	CostUSD   float64 `json:"cost_usd"`
}

// CostDataGenerator writes billing exports for tests
type CostDataGenerator struct {
	baseDir string
}

// NewCostDataGenerator creates a generator writing under baseDir
func NewCostDataGenerator(baseDir string) *CostDataGenerator {
	return &CostDataGenerator{baseDir: baseDir}
}

// DailyEntries produces one entry per service per day starting at start.
// Costs grow by one cent per entry so every entry is distinct.
func DailyEntries(provider string, services []string, start time.Time, days int) []CostEntry {
	entries := make([]CostEntry, 0, len(services)*days)
	cents := 100
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		for _, svc := range services {
			entries = append(entries, CostEntry{
				Provider: provider,
				Service:  svc,
				Date:     date,
				CostUSD:  float64(cents) / 100,
			})
			cents++
		}
	}
	return entries
}

// DistinctEntries produces n distinct entries spread over consecutive days
func DistinctEntries(n int) []CostEntry {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	entries := make([]CostEntry, n)
	for i := range entries {
		entries[i] = CostEntry{
			Provider: "AWS",
			Service:  fmt.Sprintf("Service-%d", i%7),
			Date:     start.AddDate(0, 0, i/10).Format("2006-01-02"),
			CostUSD:  float64(i+1) / 4,
		}
	}
	return entries
}

// MarshalEntries encodes entries as the backend's JSON array
func MarshalEntries(entries []CostEntry) []byte {
	data, err := json.Marshal(entries)
	if err != nil {
		panic(err)
	}
	return data
}

// WriteJSON writes entries as a JSON array file and returns its path
func (g *CostDataGenerator) WriteJSON(name string, entries []CostEntry) (string, error) {
	path := filepath.Join(g.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, MarshalEntries(entries), 0644)
}

// WriteCSV writes entries in the provider export layout
// (date,service,cost_usd,region) and returns its path
func (g *CostDataGenerator) WriteCSV(name string, entries []CostEntry) (string, error) {
	path := filepath.Join(g.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"date", "service", "cost_usd", "region"}); err != nil {
		return "", err
	}
	for _, e := range entries {
		row := []string{e.Date, e.Service, strconv.FormatFloat(e.CostUSD, 'f', -1, 64), e.Region}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}
