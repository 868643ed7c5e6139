package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHeaderKeepsParamOrder(t *testing.T) {
	out := NewHeader("Render configuration", "topology-cfg render",
		P("Session", "default"),
		P("Output", "./out"),
		P("Proxy", "nginx"),
	).SetWidth(80).Render()

	if !strings.Contains(out, "RENDER CONFIGURATION") {
		t.Errorf("header title not upper-cased:\n%s", out)
	}
	session := strings.Index(out, "Session:")
	output := strings.Index(out, "Output:")
	proxy := strings.Index(out, "Proxy:")
	if session < 0 || output < 0 || proxy < 0 {
		t.Fatalf("missing params:\n%s", out)
	}
	if !(session < output && output < proxy) {
		t.Errorf("params out of order: %d %d %d", session, output, proxy)
	}
}

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("Configuration written", P("Files", "3")),
			want:   []string{"SUCCESS", "Configuration written", "Files:", "3"},
		},
		{
			name:   "failure",
			result: NewFailureResult("Render failed", errors.New("server_name is required"), "Run topology-cfg"),
			want:   []string{"FAILED", "server_name is required", "Troubleshooting:", "Run topology-cfg"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Check answers").AddHint("Pick a database"),
			want:   []string{"WARNING", "Check answers", "Next steps:", "Pick a database"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(80).Render()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestSnippetTruncates(t *testing.T) {
	s := NewSnippet("homeserver.yaml", "a: 1\nb: 2\nc: 3\nd: 4\n").SetWidth(80).SetMaxLines(2)
	out := s.Render()

	if !strings.Contains(out, "homeserver.yaml") {
		t.Errorf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "b: 2") || strings.Contains(out, "c: 3") {
		t.Errorf("unexpected truncation:\n%s", out)
	}
	if !strings.Contains(out, "(2 more lines)") {
		t.Errorf("missing truncation note:\n%s", out)
	}
	if len(s.Lines) != 4 {
		t.Errorf("render must not modify Lines, got %d", len(s.Lines))
	}
}

func TestProgress(t *testing.T) {
	p := NewProgress("Writing files", "homeserver.yaml", "reverse proxy", "delegation").SetWidth(80)

	p.StartStep(1, "")
	if p.Current != 1 || p.Percent != 0 {
		t.Errorf("after start: current=%d percent=%v", p.Current, p.Percent)
	}
	p.CompleteStep(1, "out/homeserver.yaml")
	p.SkipStep(2, "no reverse proxy")
	if p.Percent < 0.66 || p.Percent > 0.67 {
		t.Errorf("percent = %v, want 2/3", p.Percent)
	}
	if p.Failed() {
		t.Error("no step failed yet")
	}
	p.FailStep(3, "boom")
	if !p.Failed() {
		t.Error("expected failure")
	}

	// ignored
	p.UpdateStep(0, StepComplete, "")
	p.UpdateStep(9, StepComplete, "")

	out := p.Render()
	for _, w := range []string{"Writing files", "out/homeserver.yaml", "no reverse proxy", "[3/3]"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"I AGREE\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := ConfirmOverwrite(strings.NewReader(tt.input), &out, []string{"out/homeserver.yaml"})
		if got != tt.want {
			t.Errorf("ConfirmOverwrite(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "out/homeserver.yaml") {
			t.Errorf("prompt does not list the file:\n%s", out.String())
		}
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(80)

	p.PrintHeader("Sessions", "topology-cfg sessions")
	p.PrintSnippet("delegation", `{"m.server": "synapse.example.com:443"}`)
	p.PrintError("Scan failed", errors.New("no network"))

	out := buf.String()
	for _, w := range []string{"SESSIONS", "m.server", "no network"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q", w)
		}
	}
	if p.Writer() != &buf {
		t.Error("Writer should return the configured writer")
	}
}

func TestGetTerminalSize(t *testing.T) {
	width, height := GetTerminalSize()
	if width < MinTerminalWidth || width > MaxContentWidth {
		t.Errorf("width = %d, want within %d-%d", width, MinTerminalWidth, MaxContentWidth)
	}
	if height <= 0 {
		t.Errorf("height = %d", height)
	}
	if got := clampWidth(10); got != MinTerminalWidth {
		t.Errorf("clampWidth(10) = %d", got)
	}
	if got := clampWidth(1000); got != MaxContentWidth {
		t.Errorf("clampWidth(1000) = %d", got)
	}
}
