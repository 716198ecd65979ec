package record

import (
	"reflect"
	"testing"
)

func TestGetSetCaseInsensitive(t *testing.T) {
	r := New("smith2023", "article")
	r.Set("Title", "A Test Paper")

	if got := r.Get("title"); got != "A Test Paper" {
		t.Errorf("Get(title) = %q, want %q", got, "A Test Paper")
	}

	// Setting again replaces in place, not append
	r.Set("TITLE", "Another Title")
	if len(r.Fields) != 1 {
		t.Errorf("len(Fields) = %d after duplicate Set, want 1", len(r.Fields))
	}
	if got := r.Get("title"); got != "Another Title" {
		t.Errorf("Get(title) = %q, want %q", got, "Another Title")
	}
}

func TestHasBlankField(t *testing.T) {
	r := New("x", "article")
	r.Set("journal", "   ")

	if r.Has("journal") {
		t.Error("Has(journal) = true for blank value")
	}
	if r.Has("volume") {
		t.Error("Has(volume) = true for absent field")
	}
}

func TestFieldOrderPreserved(t *testing.T) {
	r := New("x", "article")
	r.Set("author", "Smith, John")
	r.Set("title", "T")
	r.Set("year", "2023")

	want := []string{"author", "title", "year"}
	if got := r.FieldNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}
}

func TestClone(t *testing.T) {
	r := New("x", "article")
	r.Set("title", "Original")

	c := r.Clone()
	c.Set("title", "Changed")
	c.ID = "y"

	if r.Get("title") != "Original" {
		t.Error("mutating clone changed original fields")
	}
	if r.ID != "x" {
		t.Error("mutating clone changed original ID")
	}
}

func TestCompleteness(t *testing.T) {
	tests := []struct {
		name        string
		entryType   string
		fields      map[string]string
		wantMissing []string
	}{
		{
			name:      "complete article skips booktitle",
			entryType: "article",
			fields: map[string]string{
				"author": "A", "title": "T", "year": "2023", "journal": "J",
				"volume": "1", "number": "2", "pages": "1-10",
				"publisher": "P", "doi": "10.1109/x.1",
			},
			wantMissing: nil,
		},
		{
			name:      "inproceedings skips journal",
			entryType: "inproceedings",
			fields: map[string]string{
				"author": "A", "title": "T", "year": "2023", "booktitle": "B",
				"volume": "1", "number": "2", "pages": "1-10",
				"publisher": "P", "doi": "10.1145/x.1",
			},
			wantMissing: nil,
		},
		{
			name:        "missing fields reported",
			entryType:   "article",
			fields:      map[string]string{"title": "T", "year": "2023"},
			wantMissing: []string{"author", "journal", "volume", "number", "pages", "publisher", "doi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("id", tt.entryType)
			// Insert in a fixed order so the test is deterministic
			for _, name := range ImportantFields {
				if v, ok := tt.fields[name]; ok {
					r.Set(name, v)
				}
			}
			_, missing := r.Completeness()
			if !reflect.DeepEqual(missing, tt.wantMissing) {
				t.Errorf("missing = %v, want %v", missing, tt.wantMissing)
			}
		})
	}
}
