package util

import (
	"strings"
	"testing"
)

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "Ascend Roofing", want: "Ascend Roofing"},
		{name: "script", in: `<script>alert("x")</script>`, want: "&lt;script&gt;alert(&quot;x&quot;)&lt;/script&gt;"},
		{name: "apostrophe", in: "O'Brien & Sons", want: "O&#x27;Brien &amp; Sons"},
		{name: "double escape", in: "&amp;", want: "&amp;amp;"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeHTML(tt.in); got != tt.want {
				t.Fatalf("EscapeHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeHTMLRemovesAngleBrackets(t *testing.T) {
	inputs := []string{
		"<script>",
		"before<script>after",
		"<<script>>",
		"<img src=x onerror=alert(1)><script>",
	}
	for _, in := range inputs {
		got := EscapeHTML(in)
		if strings.ContainsAny(got, "<>") {
			t.Fatalf("EscapeHTML(%q) = %q still contains angle brackets", in, got)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName(" certs/public liability.pdf ")
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if got != "certs_public liability.pdf" {
		t.Fatalf("unexpected name %q", got)
	}
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}
}
