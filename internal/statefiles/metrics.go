package statefiles

import (
	"encoding/json"
	"os"
)

// ReadLiveMetrics reads the live metrics snapshot at path. The file is
// fully overwritten by the CV pipeline whenever live state changes, and
// may not exist or may be mid-write; absence and parse failure both mean
// "no metrics available", never an error.
func ReadLiveMetrics(path string) json.RawMessage {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	if !json.Valid(content) {
		return nil
	}
	return json.RawMessage(content)
}
