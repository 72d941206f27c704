package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/mork/internal/canon"
	"github.com/roach88/mork/internal/flatten"
)

// marshalRecord converts a record to canonical JSON TEXT for storage.
func marshalRecord(record flatten.Record) (string, error) {
	data, err := canon.MarshalRecord(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(data), nil
}

// unmarshalRecord parses record_json TEXT back into a record.
func unmarshalRecord(data string) (flatten.Record, error) {
	if data == "" || data == "{}" {
		return flatten.Record{}, nil
	}
	var record flatten.Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return record, nil
}
