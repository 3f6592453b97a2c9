package telephony

import (
	"strings"
	"testing"
)

func TestRenderEscapeMessage(t *testing.T) {
	doc, err := RenderEscapeMessage("Your meeting starts soon")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(doc, `<Say voice="alice" language="en-US">Your meeting starts soon</Say>`) {
		t.Fatalf("expected Say verb in document: %s", doc)
	}
	if !strings.Contains(doc, `<Pause length="1"`) {
		t.Fatalf("expected Pause verb in document: %s", doc)
	}
	if !strings.Contains(doc, closingMessage) {
		t.Fatalf("expected closing message in document: %s", doc)
	}
}

func TestRenderEscapeMessageEscapesSpecials(t *testing.T) {
	doc, err := RenderEscapeMessage(`Tom & Jerry say <hi> "now" it's urgent`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, raw := range []string{"& ", "<hi>", `"now"`, "it's"} {
		if strings.Contains(doc, raw) {
			t.Fatalf("unescaped %q leaked into document: %s", raw, doc)
		}
	}
	for _, esc := range []string{"&amp;", "&lt;hi&gt;", "&#34;now&#34;", "it&#39;s"} {
		if !strings.Contains(doc, esc) {
			t.Fatalf("expected %q in document: %s", esc, doc)
		}
	}
}

func TestRenderEscapeMessageRequiresMessage(t *testing.T) {
	if _, err := RenderEscapeMessage(""); err == nil {
		t.Fatalf("expected error for empty message")
	}
}

func TestValidDestination(t *testing.T) {
	cases := []struct {
		number string
		ok     bool
	}{
		{"+15551234567", true},
		{"+442071838750", true},
		{"+12", true},
		{"15551234567", false},
		{"+0551234567", false},
		{"+1555123456789012", false},
		{"+1 555 1234567", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidDestination(tc.number); got != tc.ok {
			t.Fatalf("ValidDestination(%q) = %v, want %v", tc.number, got, tc.ok)
		}
	}
}
