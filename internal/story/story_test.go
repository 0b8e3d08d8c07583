package story

import "testing"

func TestParseFilename(t *testing.T) {
	id, err := ParseFilename("s-1-2.json")
	if err != nil {
		t.Fatalf("parse filename: %v", err)
	}
	if id != "1-2" {
		t.Fatalf("expected id %q, got %q", "1-2", id)
	}
}

func TestParseFilenameMultiDigit(t *testing.T) {
	id, err := ParseFilename("s-12-345.json")
	if err != nil {
		t.Fatalf("parse filename: %v", err)
	}
	if id != "12-345" {
		t.Fatalf("expected id %q, got %q", "12-345", id)
	}
}

func TestParseFilenameRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"s-1-2",
		"1-2.json",
		"s-1.json",
		"s-a-b.json",
		"s--2.json",
		"s-1-2.json.bak",
		"x-1-2.json",
		"s-1-2.JSON",
	}
	for _, name := range cases {
		if _, err := ParseFilename(name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}

func TestValidSectionID(t *testing.T) {
	if !ValidSectionID("0-0") {
		t.Fatal("expected 0-0 to be valid")
	}
	if !ValidSectionID("10-27") {
		t.Fatal("expected 10-27 to be valid")
	}
	for _, id := range []string{"", "1", "1-", "-2", "a-b", "1-2-3", "s-1-2"} {
		if ValidSectionID(id) {
			t.Fatalf("expected %q to be invalid", id)
		}
	}
}

func TestKeyRoundTrip(t *testing.T) {
	if got := Key("1-2"); got != "s-1-2" {
		t.Fatalf("expected key %q, got %q", "s-1-2", got)
	}
	if got := SectionFromKey("s-1-2"); got != "1-2" {
		t.Fatalf("expected section %q, got %q", "1-2", got)
	}
}

func TestNewStub(t *testing.T) {
	stub := NewStub("3-4")
	if stub.ID != "3-4" {
		t.Fatalf("expected id %q, got %q", "3-4", stub.ID)
	}
	if stub.Title != "" || stub.Content != "" {
		t.Fatalf("expected empty stub content, got %+v", stub)
	}
	if stub.Options == nil || len(stub.Options) != 0 {
		t.Fatalf("expected empty non-nil options, got %#v", stub.Options)
	}
	if !IsStub(stub) {
		t.Fatal("expected stub to report as stub")
	}
}

func TestTargetsKeepsOrderAndDuplicates(t *testing.T) {
	node := Node{
		ID: "1-1",
		Options: []Option{
			{Text: "Go", Target: "1-2"},
			{Text: "Stay", Target: ""},
			{Text: "Return", Target: "1-2"},
			{Text: "Leap", Target: "2-1"},
		},
	}
	targets := Targets(node)
	want := []string{"1-2", "1-2", "2-1"}
	if len(targets) != len(want) {
		t.Fatalf("expected %d targets, got %d", len(want), len(targets))
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Fatalf("expected target[%d] %q, got %q", i, want[i], targets[i])
		}
	}
}

func TestToViewNormalizesNilOptions(t *testing.T) {
	view := ToView(Node{ID: "1-1", Title: "Start"})
	if view.Options == nil {
		t.Fatal("expected non-nil options")
	}
	if view.ID != "1-1" || view.Title != "Start" {
		t.Fatalf("unexpected view %+v", view)
	}
}
