package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonb column helpers. Each typed column implements driver.Valuer and
// sql.Scanner so snapshots stay strongly typed end to end.

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(dest interface{}, src interface{}) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(s, dest)
	case string:
		return json.Unmarshal([]byte(s), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

// JSONMap is a schemaless jsonb column (raw gateway responses,
// notification template data).
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return jsonValue(m)
}

func (m *JSONMap) Scan(src interface{}) error { return jsonScan(m, src) }

// JSONRaw stores an arbitrary JSON document verbatim (webhook payloads).
type JSONRaw json.RawMessage

func (r JSONRaw) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return string(r), nil
}

func (r *JSONRaw) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		*r = append((*r)[:0], s...)
		return nil
	case string:
		*r = JSONRaw(s)
		return nil
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

func (r JSONRaw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *JSONRaw) UnmarshalJSON(b []byte) error {
	*r = append((*r)[:0], b...)
	return nil
}
