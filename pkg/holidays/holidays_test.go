package holidays

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	data := []byte(`{
		"year": 2025,
		"months": [
			{"month": 3, "days": "31, 28*"},
			{"month": 2, "days": "17,18+,17"},
			{"month": 1, "days": ""}
		]
	}`)

	days, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []string{"2025-02-17", "2025-02-18", "2025-03-28", "2025-03-31"}
	if got := Dates(days); !reflect.DeepEqual(got, want) {
		t.Errorf("Dates = %v, want %v", got, want)
	}
	if days[0].Year != 2025 || days[0].Month != 2 || days[0].Day != 17 {
		t.Errorf("unexpected first day: %+v", days[0])
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"bad json":      `{`,
		"no year":       `{"months": []}`,
		"bad month":     `{"year": 2025, "months": [{"month": 13, "days": "1"}]}`,
		"bad day":       `{"year": 2025, "months": [{"month": 1, "days": "x"}]}`,
		"day overflows": `{"year": 2025, "months": [{"month": 2, "days": "30"}]}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2025.json")
	if err := os.WriteFile(path, []byte(`{"year":2025,"months":[{"month":8,"days":"17"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	days, err := ParseFile(path)
	if err != nil || len(days) != 1 || days[0].Date != "2025-08-17" {
		t.Errorf("ParseFile = %+v, %v", days, err)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}
