package db

import (
	"strings"
	"testing"
)

func mustBuild(t *testing.T, b *IndexBuilder) *IndexDefinition {
	t.Helper()
	idx, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestIndexBuilder_KnowledgeIndex(t *testing.T) {
	idx := mustBuild(t, NewIndex("supportkb:idx:knowledge_base").
		Prefix("supportkb:knowledge_base:").
		Tag("category").
		TagWithOpts("tags", "|", true).
		VectorHNSW("__vector", "vector", 1536, DistanceCosine, 16, 200))

	if len(idx.Fields) != 3 {
		t.Fatalf("fields count = %d, want 3", len(idx.Fields))
	}
	if idx.Fields[0].Name != "category" || idx.Fields[0].Type != IndexFieldTag {
		t.Errorf("field[0] = %+v, want category TAG", idx.Fields[0])
	}
	if !idx.Fields[0].TagCaseSensitive {
		t.Error("Tag must be case sensitive")
	}
	if idx.Fields[1].TagSeparator != "|" || !idx.Fields[1].TagCaseSensitive {
		t.Errorf("tags field = %+v, want | separator, case sensitive", idx.Fields[1])
	}
	f := idx.Fields[2]
	if f.VectorAlgo != VectorHNSW {
		t.Errorf("algo = %q, want HNSW", f.VectorAlgo)
	}
	if f.Alias != "vector" {
		t.Errorf("alias = %q, want vector", f.Alias)
	}
	if f.VectorM != 16 || f.VectorEFConstruct != 200 {
		t.Errorf("M/EF = %d/%d, want 16/200", f.VectorM, f.VectorEFConstruct)
	}
	if idx.VectorDim() != 1536 {
		t.Errorf("VectorDim() = %d, want 1536", idx.VectorDim())
	}
}

func TestIndexDefinition_VectorDimWithoutVector(t *testing.T) {
	idx := mustBuild(t, NewIndex("tags-only").Tag("x"))
	if idx.VectorDim() != 0 {
		t.Errorf("VectorDim() = %d, want 0", idx.VectorDim())
	}
}

func TestIndexBuilder_MultiplePrefixes(t *testing.T) {
	idx := mustBuild(t, NewIndex("multi-idx").
		Prefix("a:", "b:", "c:").
		Tag("x"))

	if len(idx.Prefixes) != 3 {
		t.Errorf("prefix count = %d, want 3", len(idx.Prefixes))
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Tag("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "vector without dim",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").VectorHNSW("v", "", 0, DistanceCosine, 0, 0).Build()
			},
			wantErr: "positive DIM",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").Tag("x").Build()
			},
			wantErr: "invalid characters",
		},
		{
			name: "duplicate alias",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Tag("vector").VectorHNSW("__vector", "vector", 4, DistanceCosine, 0, 0).Build()
			},
			wantErr: "duplicate field name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := mustBuild(t, NewIndex("my-idx").
		Prefix("doc:").
		Tag("cat").
		VectorHNSW("__vector", "vector", 512, DistanceCosine, 0, 0))

	s := idx.String()
	want := "FT.CREATE my-idx ON HASH PREFIX 1 doc: SCHEMA cat TAG CASESENSITIVE __vector AS vector VECTOR HNSW DIM 512"
	if s != want {
		t.Errorf("String() = %q, want %q", s, want)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"supportkb:idx:knowledge_base", true},
		{"a-b_c", true},
		{"", false},
		{"has space", false},
		{"semi;colon", false},
	}
	for _, tt := range tests {
		if got := IsValidIdentifier(tt.in); got != tt.want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
