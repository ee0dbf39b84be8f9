// Package resolver joins records to the records their foreign keys name.
package resolver

import (
	"strings"

	"library_admin/pkg/schema"
)

// Index maps id to record. When ids repeat, the later record wins.
func Index(records []schema.Record) map[string]schema.Record {
	idx := make(map[string]schema.Record, len(records))
	for _, r := range records {
		idx[r.ID()] = r
	}
	return idx
}

// Resolve returns a copy of primary in which every record of kind carries
// its related records under the relation property of each foreign key.
//
// Each referenced collection is indexed once. A key that is empty, or that
// names no record in referenced, leaves the relation property absent.
// Neither primary nor referenced is modified, and only one hop is
// resolved: the attached records are taken as they are.
func Resolve(kind schema.Kind, primary []schema.Record, referenced map[schema.Kind][]schema.Record) []schema.Record {
	type link struct {
		fk  schema.ForeignKey
		idx map[string]schema.Record
	}

	indexes := make(map[schema.Kind]map[string]schema.Record)
	var links []link
	for fk := range schema.ForeignKeys(kind) {
		idx, ok := indexes[fk.Kind]
		if !ok {
			idx = Index(referenced[fk.Kind])
			indexes[fk.Kind] = idx
		}
		links = append(links, link{fk: fk, idx: idx})
	}

	out := make([]schema.Record, len(primary))
	for i, rec := range primary {
		joined := rec.Clone()
		for _, l := range links {
			key := rec.String(l.fk.Field)
			if key == "" {
				continue
			}
			if related, ok := l.idx[key]; ok {
				joined[l.fk.Relation] = related
			}
		}
		out[i] = joined
	}
	return out
}

// Value follows a dotted path such as "user.fullName" through resolved
// relations. ok is false when any step is missing.
func Value(rec schema.Record, path string) (any, bool) {
	var cur any = rec
	for _, part := range strings.Split(path, ".") {
		m, isRecord := asRecord(cur)
		if !isRecord {
			return nil, false
		}
		v, present := m[part]
		if !present {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func asRecord(v any) (schema.Record, bool) {
	switch m := v.(type) {
	case schema.Record:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}
