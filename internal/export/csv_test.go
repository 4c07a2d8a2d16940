package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

func TestCSVExporter_BOMAndQuoting(t *testing.T) {
	ds := &Dataset{
		Name:   "test",
		Header: []string{"label", "value"},
		Rows: [][]string{
			{"Plain", "Plain"},
			{`Quote "inside"`, "with,comma"},
		},
	}

	var buf bytes.Buffer
	if err := (&CSVExporter{}).Export(ds, &buf); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("output missing UTF-8 BOM")
	}
	body := string(bytes.TrimPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "label,value" {
		t.Errorf("header = %q, want label,value", lines[0])
	}
	if lines[2] != `"Quote ""inside""","with,comma"` {
		t.Errorf("quoted row = %q", lines[2])
	}
}

func TestReadCSV_StripsBOM(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\nc,d\n")...)
	rows, err := ReadCSV(bytes.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "a" {
		t.Errorf("rows = %v, want BOM-free parse", rows)
	}
}

func TestCSVRoundTrip_OrderPreserving(t *testing.T) {
	values := []salesforce.PicklistValue{
		{Label: "Technology", Value: "Technology", Active: true},
		{Label: "Banking", Value: "Banking", Active: true},
		{Label: "Retired", Value: "Retired", Active: false},
	}
	ds := ValueSet("Account", "Industry", values)

	var buf bytes.Buffer
	if err := (&CSVExporter{}).Export(ds, &buf); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	entries, err := ParseValueSet(&buf)
	if err != nil {
		t.Fatalf("ParseValueSet returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	want := []string{"Technology", "Banking", "Retired"}
	for i, e := range entries {
		if e.FullName != want[i] {
			t.Errorf("entries[%d].FullName = %q, want %q (order must survive)", i, e.FullName, want[i])
		}
	}
}

func TestParseValueSet_LabelOnly(t *testing.T) {
	entries, err := ParseValueSet(strings.NewReader("label\nFirst\nSecond\n"))
	if err != nil {
		t.Fatalf("ParseValueSet returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// FullName defaults to the label.
	if entries[0].FullName != "First" || entries[0].Label != "First" {
		t.Errorf("entries[0] = %+v, want FullName defaulted to label", entries[0])
	}
}

func TestParseValueSet_Empty(t *testing.T) {
	for _, in := range []string{"", "label,value,active\n"} {
		_, err := ParseValueSet(strings.NewReader(in))
		var ve *salesforce.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("ParseValueSet(%q) error = %v, want *salesforce.ValidationError", in, err)
		}
	}
}

func TestJSONExporter(t *testing.T) {
	ds := &Dataset{
		Name:   "test",
		Header: []string{"label", "value"},
		Rows:   [][]string{{"Technology", "Technology"}},
	}
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(ds, &buf); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"label": "Technology"`) {
		t.Errorf("output = %s, want header-keyed objects", out)
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"csv", "csv", false},
		{"", "csv", false},
		{"json", "json", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		e, err := NewExporter(tt.format)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewExporter(%q) should fail", tt.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewExporter(%q) returned error: %v", tt.format, err)
		}
		if e.Extension() != tt.wantExt {
			t.Errorf("NewExporter(%q).Extension() = %s, want %s", tt.format, e.Extension(), tt.wantExt)
		}
	}
}
