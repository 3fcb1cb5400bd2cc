package record

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// Hash fields of a stored record.
const (
	fieldID         = "id"
	fieldCreated    = "created"
	fieldParent     = "parent"
	fieldAttributes = "attributes"
)

// recordToHash converts a record to a map for HSET.
func recordToHash(rec entity.Record, parentID string) (map[string]string, error) {
	attrs, err := rec.Attributes().MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}
	return map[string]string{
		fieldID:         rec.ID(),
		fieldCreated:    rec.Created().Format(time.RFC3339Nano),
		fieldParent:     parentID,
		fieldAttributes: string(attrs),
	}, nil
}

// recordFromHash hydrates a record from an HGETALL result map.
func recordFromHash(model string, m map[string]string) (entity.Record, error) {
	var created time.Time
	if s := m[fieldCreated]; s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return entity.Record{}, fmt.Errorf("invalid created: %w", err)
		}
		created = t
	}

	attrs := value.NewMap()
	if raw := m[fieldAttributes]; raw != "" {
		if err := attrs.UnmarshalJSON([]byte(raw)); err != nil {
			return entity.Record{}, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}

	return entity.NewRecord(model, m[fieldID], created, attrs)
}
