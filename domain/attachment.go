package domain

import (
	"reflect"
	"strings"
)

// attachmentKeys are the fields recognized when extracting an attachment
// from a loosely shaped input. "filename" is accepted as an alias for
// "name".
var attachmentKeys = []string{"name", "filename", "content_type", "data", "path"}

// NormalizeAttachment converts a heterogeneous attachment representation
// into the canonical Attachment. Recognized shapes, in order: the
// canonical struct (or a pointer to it), a string-keyed map, a value
// exposing an AsMap capability, and finally a plain struct whose fields
// are probed by name. It never panics; anything unrecognizable reports
// ok=false and callers skip the attachment.
func NormalizeAttachment(raw any) (Attachment, bool) {
	if raw == nil {
		return Attachment{}, false
	}

	switch v := raw.(type) {
	case Attachment:
		return v, true
	case *Attachment:
		if v == nil {
			return Attachment{}, false
		}
		return *v, true
	case map[string]any:
		return attachmentFromMap(v), true
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = val
		}
		return attachmentFromMap(m), true
	}

	if d, ok := raw.(interface{ AsMap() map[string]any }); ok {
		return attachmentFromMap(d.AsMap()), true
	}
	if d, ok := raw.(interface{ AsMap(includeUnset bool) map[string]any }); ok {
		return attachmentFromMap(d.AsMap(true)), true
	}

	return attachmentFromStruct(raw)
}

func attachmentFromMap(m map[string]any) Attachment {
	var att Attachment
	for key, value := range m {
		s, ok := value.(string)
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "name":
			att.Name = s
		case "filename":
			if att.Name == "" {
				att.Name = s
			}
		case "content_type":
			att.ContentType = s
		case "data":
			att.Data = s
		case "path":
			att.Path = s
		}
	}
	return att
}

// attachmentFromStruct probes exported string fields by name, treating
// the value as an attribute bag. An input exposing none of the known
// fields is reported as absent.
func attachmentFromStruct(raw any) (Attachment, bool) {
	v := reflect.ValueOf(raw)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return Attachment{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return Attachment{}, false
	}

	m := make(map[string]any)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Type.Kind() != reflect.String {
			continue
		}
		name := fieldKey(field)
		for _, key := range attachmentKeys {
			if name == key {
				m[key] = v.Field(i).String()
				break
			}
		}
	}
	if len(m) == 0 {
		return Attachment{}, false
	}
	return attachmentFromMap(m), true
}

func fieldKey(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return strings.ToLower(name)
		}
	}
	// CamelCase field names map onto snake_case keys.
	var b strings.Builder
	for i, r := range field.Name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
