package store

import (
	"encoding/json"
	"strings"

	"github.com/paaavkata/chainengine/internal/model"
)

func marshalSchedule(s model.Schedule) ([]byte, error) {
	return json.Marshal(s)
}

func unmarshalSchedule(data []byte) (model.Schedule, error) {
	var s model.Schedule
	err := json.Unmarshal(data, &s)
	return s, err
}

func marshalMetadata(m model.Metadata) ([]byte, error) {
	return json.Marshal(m)
}

func unmarshalMetadata(data []byte) (model.Metadata, error) {
	var m model.Metadata
	err := json.Unmarshal(data, &m)
	return m, err
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
