// Package record defines the core bibliographic record types shared by the
// completion pipeline.
package record

import "strings"

// ImportantFields are the fields checked when deciding whether an entry
// still needs data fetched for it.
var ImportantFields = []string{
	"author", "title", "year", "journal", "booktitle",
	"volume", "number", "pages", "publisher", "doi",
}

// Field is a single name/value pair in a record. Field order is preserved
// so serialized output stays stable across runs.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is a bibliographic entry: a citation key, an entry type, and an
// ordered list of free-form string fields. The ID is the identity of a
// logical reference and is never overwritten by merge or fetch operations.
type Record struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	Fields []Field `json:"fields"`
}

// New creates an empty record with the given citation key and entry type.
func New(id, entryType string) *Record {
	return &Record{ID: id, Type: entryType}
}

// Get returns the value of the named field, or "" if absent.
// Field names are case-insensitive.
func (r *Record) Get(name string) string {
	name = strings.ToLower(name)
	for _, f := range r.Fields {
		if strings.ToLower(f.Name) == name {
			return f.Value
		}
	}
	return ""
}

// Has reports whether the named field is present with a non-blank value.
func (r *Record) Has(name string) bool {
	return strings.TrimSpace(r.Get(name)) != ""
}

// Set stores a field value, replacing an existing field of the same name
// in place or appending a new one.
func (r *Record) Set(name, value string) {
	lower := strings.ToLower(name)
	for i, f := range r.Fields {
		if strings.ToLower(f.Name) == lower {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: lower, Value: value})
}

// Delete removes the named field if present.
func (r *Record) Delete(name string) {
	lower := strings.ToLower(name)
	for i, f := range r.Fields {
		if strings.ToLower(f.Name) == lower {
			r.Fields = append(r.Fields[:i], r.Fields[i+1:]...)
			return
		}
	}
}

// FieldNames returns the field names in their stored order.
func (r *Record) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := &Record{ID: r.ID, Type: r.Type}
	c.Fields = make([]Field, len(r.Fields))
	copy(c.Fields, r.Fields)
	return c
}

// Completeness reports which important fields are present and which are
// missing. journal is skipped for inproceedings entries and booktitle for
// articles, since each type only uses one of the two.
func (r *Record) Completeness() (present, missing []string) {
	for _, field := range ImportantFields {
		if r.Type == "inproceedings" && field == "journal" {
			continue
		}
		if r.Type == "article" && field == "booktitle" {
			continue
		}
		if r.Has(field) {
			present = append(present, field)
		} else {
			missing = append(missing, field)
		}
	}
	return present, missing
}

// SourceRecord is a record fetched from one external source, tagged with the
// adapter name that produced it. MergedFrom is populated by the merger with
// the ordered list of contributing source tags.
type SourceRecord struct {
	*Record
	Source     string   `json:"source"`
	MergedFrom []string `json:"merged_from,omitempty"`
}
