// Package highlight explains why a record matched: the values of every
// filtered field and of text fields containing the free-text query.
package highlight

import (
	"strings"

	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// Separator joins path segments in highlight labels.
const Separator = " → "

// Label renders a dotted field path for display.
func Label(field string) string {
	return strings.ReplaceAll(field, ".", Separator)
}

// Collect builds the ordered label→value map for rec. fields are the paths
// referenced by the filter; query may be empty.
func Collect(rec entity.Record, t entity.Type, fields []string, query string) *value.Map {
	out := value.NewMap()
	attrs := rec.Attributes()

	prefix := ""
	if meta := t.MetadataAttr(); meta != "" {
		prefix = meta + "."
	}

	for _, field := range fields {
		if prefix != "" && strings.HasPrefix(field, prefix) {
			v, ok := value.Lookup(attrs, strings.Split(field, "."))
			if ok && !v.IsNull() {
				out.Set(Label(field), v)
			}
			continue
		}
		if v, ok := attrs.Get(field); ok {
			out.Set(Label(field), v)
		}
	}

	if query == "" {
		return out
	}
	for _, field := range t.TextFields() {
		v, ok := attrs.Get(field)
		if ok && value.ContainsFold(v, query) {
			out.Set(field, v)
		}
	}
	return out
}
