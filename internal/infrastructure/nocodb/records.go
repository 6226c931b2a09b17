package nocodb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var errInvalidResponse = errors.New("invalid response body")

// decodeRecords extracts the rows from any of the NocoDB response envelopes:
// a bare array, {"list": [...]}, {"records": [...]}, or a single row object.
// v2 rows that nest their columns under "fields" are flattened.
func decodeRecords(body []byte) ([]json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, errInvalidResponse
	}

	doc := gjson.ParseBytes(body)
	var items []gjson.Result
	switch {
	case doc.IsArray():
		items = doc.Array()
	case doc.Get("list").IsArray():
		items = doc.Get("list").Array()
	case doc.Get("records").IsArray():
		items = doc.Get("records").Array()
	case doc.IsObject():
		items = []gjson.Result{doc}
	default:
		return nil, fmt.Errorf("%w: unexpected %s", errInvalidResponse, doc.Type)
	}

	rows := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		row, err := flattenRecord(item)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// flattenRecord lifts v2 "fields" columns to the top level, keeping the row id
func flattenRecord(item gjson.Result) (json.RawMessage, error) {
	fields := item.Get("fields")
	if !fields.IsObject() {
		return json.RawMessage(item.Raw), nil
	}

	flat := make(map[string]json.RawMessage)
	fields.ForEach(func(key, value gjson.Result) bool {
		flat[key.String()] = json.RawMessage(value.Raw)
		return true
	})
	item.ForEach(func(key, value gjson.Result) bool {
		if k := key.String(); k != "fields" {
			if _, taken := flat[k]; !taken {
				flat[k] = json.RawMessage(value.Raw)
			}
		}
		return true
	})
	return json.Marshal(flat)
}

// rowID returns the row id from either "id" or "Id"
func rowID(row json.RawMessage) int64 {
	r := gjson.GetBytes(row, "id")
	if !r.Exists() {
		r = gjson.GetBytes(row, "Id")
	}
	return r.Int()
}

// decodeRows unmarshals rows into a slice of T. Rows that do not fit are
// logged and skipped.
func decodeRows[T any](logger *zap.Logger, table string, rows []json.RawMessage) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := json.Unmarshal(row, &v); err != nil {
			logger.Warn("skipping undecodable row",
				zap.String("table", table),
				zap.Int64("id", rowID(row)),
				zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out
}
