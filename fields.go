package knackpy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fieldDefsFromMetadata flattens every object's field declarations into
// FieldDefs annotated with the owning object key.
func fieldDefsFromMetadata(metadata *Application) []FieldDef {
	var defs []FieldDef
	for _, obj := range metadata.Objects {
		for _, f := range obj.Fields {
			defs = append(defs, FieldDef{
				Key:      f.Key,
				Name:     f.Name,
				Type:     f.Type,
				Required: f.Required,
				ObjKey:   obj.Key,
			})
		}
	}
	return defs
}

// findFieldDef resolves a field identifier on one object. Keys match exactly,
// names case-insensitively.
func (a *App) findFieldDef(identifier, objKey string) (FieldDef, bool) {
	for _, def := range a.fieldDefs {
		if def.ObjKey != objKey {
			continue
		}
		if def.Key == identifier || strings.EqualFold(def.Name, identifier) {
			return def, true
		}
	}
	return FieldDef{}, false
}

// formatValue renders one raw field value as a display string, using the app
// timezone for timestamps. Unknown types fall back to a generic rendering.
func formatValue(def FieldDef, raw any, tz *time.Location) string {
	if raw == nil {
		return ""
	}

	switch def.Type {
	case "date_time":
		if m, ok := raw.(map[string]any); ok {
			if ts, ok := numberValue(m["unix_timestamp"]); ok {
				// Knack timestamps are milliseconds since epoch.
				t := time.UnixMilli(int64(ts)).In(tz)
				return t.Format("2006-01-02 15:04:05")
			}
		}
	case "connection":
		if items, ok := raw.([]any); ok {
			var names []string
			for _, item := range items {
				if m, ok := item.(map[string]any); ok {
					if ident, ok := m["identifier"].(string); ok {
						names = append(names, ident)
					}
				}
			}
			return strings.Join(names, ", ")
		}
	case "file", "image":
		if m, ok := raw.(map[string]any); ok {
			if u, ok := m["url"].(string); ok {
				return u
			}
		}
	case "address":
		if m, ok := raw.(map[string]any); ok {
			var parts []string
			for _, key := range []string{"street", "street2", "city", "state", "zip"} {
				if s, ok := m[key].(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, ", ")
		}
	}

	return stringifyRaw(raw)
}

// stringifyRaw renders an arbitrary decoded JSON value the way it would read
// in a filename or CSV cell.
func stringifyRaw(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		// JSON numbers decode as float64; render integers without a fraction.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// numberValue extracts a float64 from a decoded JSON number.
func numberValue(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
