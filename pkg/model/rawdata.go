package model

import "encoding/json"

// RawData converts a provider-native record into the map form stored under
// Task.OriginalData. A record that cannot round-trip through JSON yields nil.
func RawData(v interface{}) map[string]interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
