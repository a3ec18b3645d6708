package model

import "fmt"

// FetchError is a network, status or decoding failure on the inbound fetch.
type FetchError struct {
	Source string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch from %s failed (status %d): %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch from %s failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedRecordError describes a raw record dropped during ingest.
type MalformedRecordError struct {
	Index  int
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("record %d: %s %s", e.Index, e.Field, e.Reason)
}

// MalformedQueryError describes a query pair ignored during decoding.
type MalformedQueryError struct {
	Pair   string
	Reason string
}

func (e *MalformedQueryError) Error() string {
	return fmt.Sprintf("query pair %q: %s", e.Pair, e.Reason)
}
