package catalog

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

// ToBackendValve converts one raw backend JSON object. Legacy column names
// (nombre, serie, bank) are accepted next to the current ones.
func ToBackendValve(raw map[string]any) (internal.BackendValve, error) {
	id, ok := toIDString(raw["id"])
	if !ok {
		return internal.BackendValve{}, errors.New("missing id")
	}

	v := internal.BackendValve{ID: id}
	v.Ref = toStringPtr(raw["ref"])
	v.Valve = toStringPtr(raw["valvula"])
	v.Name = toStringPtr(raw["nombre"])
	v.Quantity = toIntPtr(raw["cantidad"])
	v.Location = toLocations(raw["ubicacion"])
	v.SerialNumber = firstStringPtr(raw["numero_serie"], raw["serie"])
	v.DatasheetURL = toStringPtr(raw["ficha_tecnica"])
	v.SymbolURL = toStringPtr(raw["simbolo"])
	v.Bank = firstStringPtr(raw["banco"], raw["bank"])
	return v, nil
}

// decodeValveList accepts {"items": [...]} or a bare array and converts every
// usable entry; entries without an id are dropped.
func decodeValveList(body []byte) ([]internal.BackendValve, error) {
	items, err := decodeItems(body)
	if err != nil {
		return nil, err
	}
	out := make([]internal.BackendValve, 0, len(items))
	for _, raw := range items {
		v, err := ToBackendValve(raw)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeItems(body []byte) ([]map[string]any, error) {
	var payload any
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	var list []any
	switch t := payload.(type) {
	case []any:
		list = t
	case map[string]any:
		items, ok := t["items"].([]any)
		if !ok {
			return nil, errors.New("response has no items list")
		}
		list = items
	default:
		return nil, errors.New("unexpected response shape")
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func toIDString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	case json.Number:
		return t.String(), t.String() != ""
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

func toIntPtr(v any) *int {
	switch t := v.(type) {
	case int:
		return util.IntPtr(t)
	case int64:
		return util.IntPtr(int(t))
	case float64:
		return util.IntPtr(int(math.Round(t)))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return util.IntPtr(int(i))
		}
		if f, err := t.Float64(); err == nil {
			return util.IntPtr(int(math.Round(f)))
		}
	case string:
		return util.ParseQuantity(t)
	}
	return nil
}

func toStringPtr(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return util.StringPtr(s)
}

func firstStringPtr(values ...any) *string {
	for _, v := range values {
		if s := toStringPtr(v); s != nil {
			return s
		}
	}
	return nil
}

func toLocations(v any) internal.Locations {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return internal.Locations{s}
		}
	case []any:
		out := internal.Locations{}
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
