package db

import (
	"reflect"
	"strings"
	"testing"
)

func TestEncodeStringList(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"nil", nil, "[]"},
		{"empty", []string{}, "[]"},
		{"single", []string{"src/app.py"}, `["src/app.py"]`},
		{"multiple", []string{"a.py", "b.py"}, `["a.py","b.py"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeStringList(tt.values); got != tt.want {
				t.Errorf("encodeStringList(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestDecodeStringList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty string", "", nil},
		{"empty array", "[]", nil},
		{"null", "null", nil},
		{"values", `["a.py","src/b.py"]`, []string{"a.py", "src/b.py"}},
		{"garbage", "{not json", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeStringList(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("decodeStringList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	values := []string{"src/app.py", "tests/test_app.py", "path with spaces.txt"}
	got := decodeStringList(encodeStringList(values))
	if !reflect.DeepEqual(got, values) {
		t.Errorf("round trip = %v, want %v", got, values)
	}
}

func TestListRunsQuery(t *testing.T) {
	t.Run("no filter no limit", func(t *testing.T) {
		query, args := listRunsQuery("", 0)
		if strings.Contains(query, "WHERE") {
			t.Errorf("unexpected WHERE clause: %q", query)
		}
		if strings.Contains(query, "LIMIT") {
			t.Errorf("unexpected LIMIT clause: %q", query)
		}
		if len(args) != 0 {
			t.Errorf("expected no args, got %v", args)
		}
	})

	t.Run("ticket filter", func(t *testing.T) {
		query, args := listRunsQuery("PROJ-1", 0)
		if !strings.Contains(query, "WHERE ticket_key = $1") {
			t.Errorf("missing ticket filter: %q", query)
		}
		if len(args) != 1 || args[0] != "PROJ-1" {
			t.Errorf("args = %v, want [PROJ-1]", args)
		}
	})

	t.Run("limit only", func(t *testing.T) {
		query, args := listRunsQuery("", 20)
		if !strings.Contains(query, "LIMIT $1") {
			t.Errorf("limit placeholder should be $1: %q", query)
		}
		if len(args) != 1 || args[0] != 20 {
			t.Errorf("args = %v, want [20]", args)
		}
	})

	t.Run("filter and limit", func(t *testing.T) {
		query, args := listRunsQuery("PROJ-1", 5)
		if !strings.Contains(query, "WHERE ticket_key = $1") {
			t.Errorf("missing ticket filter: %q", query)
		}
		if !strings.Contains(query, "LIMIT $2") {
			t.Errorf("limit placeholder should be $2: %q", query)
		}
		want := []interface{}{"PROJ-1", 5}
		if !reflect.DeepEqual(args, want) {
			t.Errorf("args = %v, want %v", args, want)
		}
	})

	t.Run("ordered newest first", func(t *testing.T) {
		query, _ := listRunsQuery("", 0)
		if !strings.Contains(query, "ORDER BY id DESC") {
			t.Errorf("missing ordering: %q", query)
		}
	})
}

func TestOpenEmptyDSN(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
