package diag

import "testing"

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Level:   Warning,
		Message: "unreachable statement",
		Loc:     Location{File: "a.c", Line: 12, Column: 5, Source: "    x = 1;"},
	}
	got := d.String()
	want := "a.c(12): warning: unreachable statement\n  " +
		"    x = 1;\n      ^"
	if got != want {
		t.Errorf("String() =\n%q\nwant\n%q", got, want)
	}
}

func TestSinkThreshold(t *testing.T) {
	s := NewSink()
	loc := Location{File: "a.c", Line: 1}
	for i := 0; i < 24; i++ {
		if s.Errorf(loc, "err %d", i) {
			t.Fatalf("exhausted early at %d", i)
		}
	}
	if !s.Errorf(loc, "err 24") {
		t.Fatal("expected threshold reached at 25th error")
	}
	if !s.HadErrors() {
		t.Fatal("expected HadErrors true")
	}
}

func TestSinkWarningsAsErrors(t *testing.T) {
	s := NewSink()
	s.WarningsAsErrors = true
	loc := Location{File: "a.c", Line: 1}
	if s.HadErrors() {
		t.Fatal("fresh sink should have no errors")
	}
	s.Warn(loc, "unreachable")
	if !s.HadErrors() {
		t.Fatal("warning should count as error when WarningsAsErrors set")
	}
}

func TestDiagnosticsOrderedBySourcePosition(t *testing.T) {
	s := NewSink()
	s.Errorf(Location{File: "a.c", Line: 5}, "later")
	s.Errorf(Location{File: "a.c", Line: 1}, "earlier")
	s.Errorf(Location{File: "a.c", Line: 3, Column: 2}, "middle")
	ds := s.Diagnostics()
	if ds[0].Message != "earlier" || ds[1].Message != "middle" || ds[2].Message != "later" {
		t.Fatalf("unexpected order: %v", ds)
	}
}
