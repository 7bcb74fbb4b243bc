package filterview

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Codec maps filter values to query parameters and back.
type Codec interface {
	// Encode renders values as query parameters. Absent values are omitted.
	Encode(Values) url.Values
	// Decode parses the parameters it owns. Each field is validated on its
	// own; tokens that fail are left out of the result.
	Decode(url.Values) Values
	// Keys lists the parameter names owned by the view.
	Keys() []string
}

// SchemaCodec is the schema-driven Codec used unless a view supplies its own.
type SchemaCodec struct {
	schema Schema
}

// NewSchemaCodec returns a codec for every field of schema.
func NewSchemaCodec(schema Schema) SchemaCodec {
	return SchemaCodec{schema: schema}
}

func (c SchemaCodec) Keys() []string {
	return c.schema.Names()
}

func (c SchemaCodec) Encode(values Values) url.Values {
	out := url.Values{}
	for _, f := range c.schema.Fields {
		v, ok := values[f.Name]
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case string:
			out.Set(f.Name, x)
		case int64:
			out.Set(f.Name, strconv.FormatInt(x, 10))
		case bool:
			out.Set(f.Name, strconv.FormatBool(x))
		case time.Time:
			out.Set(f.Name, FormatDate(x))
		case []string:
			for _, item := range x {
				out.Add(f.Name, item)
			}
		}
	}
	return out
}

func (c SchemaCodec) Decode(params url.Values) Values {
	out := Values{}
	for _, f := range c.schema.Fields {
		raw, ok := params[f.Name]
		if !ok || len(raw) == 0 {
			continue
		}
		if v, ok := decodeField(f, raw); ok {
			out[f.Name] = v
		}
	}
	return out
}

func decodeField(f Field, raw []string) (any, bool) {
	first := strings.TrimSpace(raw[0])
	switch f.Kind {
	case KindString:
		if first == "" {
			return nil, false
		}
		if len(f.Options) > 0 && !slices.Contains(f.Options, first) {
			return nil, false
		}
		return first, true
	case KindInt:
		n, err := ParseInteger(first)
		if err != nil {
			return nil, false
		}
		return n, true
	case KindBool:
		b, err := strconv.ParseBool(first)
		if err != nil {
			return nil, false
		}
		return b, true
	case KindDate:
		t, err := ParseDate(first)
		if err != nil {
			return nil, false
		}
		return t, true
	case KindStrings:
		list := make([]string, 0, len(raw))
		for _, item := range raw {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if len(f.Options) > 0 && !slices.Contains(f.Options, item) {
				continue
			}
			list = append(list, item)
		}
		if len(list) == 0 {
			return nil, false
		}
		return list, true
	}
	return nil, false
}

// MergeQuery returns current with every owned key replaced by encoded.
// Owned keys missing from encoded are removed; other keys are kept.
func MergeQuery(current url.Values, owned []string, encoded url.Values) url.Values {
	out := url.Values{}
	for k, v := range current {
		if slices.Contains(owned, k) {
			continue
		}
		out[k] = slices.Clone(v)
	}
	for k, v := range encoded {
		out[k] = slices.Clone(v)
	}
	return out
}

// OwnedQuery returns only the owned keys of q.
func OwnedQuery(q url.Values, owned []string) url.Values {
	out := url.Values{}
	for _, k := range owned {
		if v, ok := q[k]; ok {
			out[k] = slices.Clone(v)
		}
	}
	return out
}
