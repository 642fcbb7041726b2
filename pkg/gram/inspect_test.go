package gram

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDescribe_Record(t *testing.T) {
	r := NewRecord([]string{"id"}, 2)
	_ = r.Set(0, "id", Scalar(1))
	_ = r.Set(1, "id", NewText("b"))
	data := mustMarshal(t, Default, r)

	var out bytes.Buffer
	if err := Describe(&out, data); err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	want := []string{
		"Record 1x2 total=59 data=47 elem=0",
		"  field Text 1x2 total=14 data=2 elem=1 \"id\"",
		"  (0).0 Number 1x1 total=20 data=8 elem=8",
		"  (1).0 Text 1x1 total=13 data=1 elem=1 \"b\"",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestDescribe_StopsAtBadChild(t *testing.T) {
	data := mustMarshal(t, Default, NewList(Scalar(1), Scalar(2)))
	// break the second child's total length
	data[HeaderSize+20] = 0xFF

	var out bytes.Buffer
	err := Describe(&out, data)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("got %v, want ErrMalformedHeader", err)
	}
	if n := strings.Count(out.String(), "\n"); n != 2 {
		t.Errorf("wrote %d lines before the error, want 2:\n%s", n, out.String())
	}
}

func TestDescribe_Truncated(t *testing.T) {
	data := mustMarshal(t, Default, RowVector(1, 2, 3))
	if err := Describe(&bytes.Buffer{}, data[:20]); !errors.Is(err, ErrInsufficientBuffer) {
		t.Errorf("got %v, want ErrInsufficientBuffer", err)
	}
}

func TestHexDump(t *testing.T) {
	data := mustMarshal(t, Default, NewText("hi"))
	dump := HexDump(data)
	if !strings.HasPrefix(dump, "00000000  0e 00 01 00 02 00 01 00  01 00 02 00 68 69") {
		t.Errorf("unexpected dump:\n%s", dump)
	}
}

func TestSelfTest(t *testing.T) {
	var out bytes.Buffer
	if err := SelfTest(&out); err != nil {
		t.Fatalf("SelfTest failed: %v", err)
	}

	report := out.String()
	for _, want := range []string{"Sanity test for uint16:", "Sanity test for double:", "200 -> 200 0 -> 200", "6000 -> 6000"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
