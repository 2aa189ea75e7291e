package filters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Framian/umami/pkg/core"
)

// operatorPrefixes encodes an operator in front of a string filter value.
// Longest prefix first.
var operatorPrefixes = []struct {
	prefix   string
	operator core.Operator
}{
	{"!~", core.OperatorDoesNotContain},
	{"!", core.OperatorNotEquals},
	{"~", core.OperatorContains},
}

// ParseValue splits a raw filter value into its operator and value.
func ParseValue(raw any) (core.Operator, any) {
	switch v := raw.(type) {
	case core.Filter:
		op := v.Operator
		if op == "" {
			op = core.OperatorEquals
		}
		return op, v.Value
	case *core.Filter:
		if v == nil {
			return core.OperatorEquals, nil
		}
		return ParseValue(*v)
	case string:
		for _, p := range operatorPrefixes {
			if rest, ok := strings.CutPrefix(v, p.prefix); ok {
				return p.operator, rest
			}
		}
		return core.OperatorEquals, v
	default:
		return core.OperatorEquals, raw
	}
}

// Descriptors resolves every non-nil filter. Names are visited in sorted
// order so the generated SQL is stable.
func Descriptors(filters core.Filters, opts core.QueryOptions) []core.FilterDescriptor {
	if len(filters) == 0 {
		return nil
	}

	names := make([]string, 0, len(filters))
	for name, value := range filters {
		if value == nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	descs := make([]core.FilterDescriptor, 0, len(names))
	for _, name := range names {
		op, value := ParseValue(filters[name])
		descs = append(descs, core.FilterDescriptor{
			Name:     name,
			Column:   resolveColumn(name, opts.Columns),
			Operator: op,
			Value:    value,
			Prefix:   opts.Prefix,
		})
	}
	return descs
}

func resolveColumn(name string, overrides map[string]string) string {
	if col, ok := overrides[name]; ok {
		return col
	}
	return FilterColumns[name]
}

// QueryParams returns the placeholder values for filters. Every filter is
// copied through; contains/doesNotContain values are wrapped in wildcards
// and operator prefixes are stripped from string values.
func QueryParams(filters core.Filters) map[string]any {
	params := make(map[string]any, len(filters))
	for name, value := range filters {
		params[name] = value
	}

	for _, d := range Descriptors(filters, core.QueryOptions{}) {
		if d.Operator.IsLike() {
			params[d.Name] = fmt.Sprintf("%%%v%%", d.Value)
			continue
		}
		params[d.Name] = d.Value
	}
	return params
}

// FromMap converts decoded JSON or YAML filters. A nested object with an
// "operator" key becomes a core.Filter; anything else is kept as is.
func FromMap(m map[string]any) core.Filters {
	out := make(core.Filters, len(m))
	for name, value := range m {
		obj, ok := value.(map[string]any)
		if !ok {
			out[name] = value
			continue
		}
		op, _ := obj["operator"].(string)
		if op == "" {
			out[name] = value
			continue
		}
		out[name] = core.Filter{Operator: core.Operator(op), Value: obj["value"]}
	}
	return out
}
