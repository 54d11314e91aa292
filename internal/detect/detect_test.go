package detect

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "SyNeRgY", "synergy"},
		{"trims whitespace", "  deep dive \t", "deep dive"},
		{"curly single quotes", "let’s ‘go’", "let's 'go'"},
		{"curly double quotes", "“quoted”", `"quoted"`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	none := map[string]struct{}{}

	tests := []struct {
		name       string
		transcript string
		candidates []string
		filled     map[string]struct{}
		want       []string
	}{
		{
			name:       "single word boundary match",
			transcript: "Let's discuss our MVP for the sprint",
			candidates: []string{"mvp", "sprint", "backlog"},
			filled:     none,
			want:       []string{"mvp", "sprint"},
		},
		{
			name:       "no substring match inside larger token",
			transcript: "we were sprinting all week",
			candidates: []string{"sprint"},
			filled:     none,
			want:       nil,
		},
		{
			name:       "phrase substring match",
			transcript: "time for a deep dive into the numbers",
			candidates: []string{"deep dive"},
			filled:     none,
			want:       []string{"deep dive"},
		},
		{
			name:       "phrase does not match across reordering",
			transcript: "we dive deep into things here",
			candidates: []string{"deep dive"},
			filled:     none,
			want:       nil,
		},
		{
			name:       "alias resolves to canonical word",
			transcript: "we need continuous integration pipelines",
			candidates: []string{"ci/cd"},
			filled:     none,
			want:       []string{"ci/cd"},
		},
		{
			name:       "literal matches ordered before alias matches",
			transcript: "the return on investment beats our agile plan",
			candidates: []string{"roi", "agile"},
			filled:     none,
			want:       []string{"agile", "roi"},
		},
		{
			name:       "already filled words skipped",
			transcript: "mvp and sprint again",
			candidates: []string{"mvp", "sprint"},
			filled:     map[string]struct{}{"mvp": {}},
			want:       []string{"sprint"},
		},
		{
			name:       "alias skipped when canonical already filled",
			transcript: "minimum viable product talk",
			candidates: []string{"mvp"},
			filled:     map[string]struct{}{"mvp": {}},
			want:       nil,
		},
		{
			name:       "case insensitive both sides",
			transcript: "SYNERGY everywhere",
			candidates: []string{"Synergy"},
			filled:     none,
			want:       []string{"Synergy"},
		},
		{
			name:       "curly quote transcript still matches",
			transcript: "that’s a low-hanging fruit",
			candidates: []string{"low-hanging fruit"},
			filled:     none,
			want:       []string{"low-hanging fruit"},
		},
		{
			name:       "no double report when literal and alias both hit",
			transcript: "devops means dev ops",
			candidates: []string{"devops"},
			filled:     none,
			want:       []string{"devops"},
		},
		{
			name:       "empty transcript",
			transcript: "",
			candidates: []string{"mvp"},
			filled:     none,
			want:       nil,
		},
		{
			name:       "empty candidates",
			transcript: "anything at all",
			candidates: nil,
			filled:     none,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Detect(tt.transcript, tt.candidates, tt.filled)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Detect(%q) = %v, want %v", tt.transcript, got, tt.want)
			}
		})
	}
}

func TestDetect_CandidateOrderPreserved(t *testing.T) {
	t.Parallel()

	transcript := "backlog sprint mvp"
	got := Detect(transcript, []string{"mvp", "sprint", "backlog"}, map[string]struct{}{})
	want := []string{"mvp", "sprint", "backlog"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want candidate order %v", got, want)
	}
}

func TestDetect_Pure(t *testing.T) {
	t.Parallel()

	// Repeated calls with identical inputs yield identical results: the
	// detector keeps no state between calls.
	transcript := "our mvp ships this sprint"
	candidates := []string{"mvp", "sprint"}
	first := Detect(transcript, candidates, map[string]struct{}{})
	second := Detect(transcript, candidates, map[string]struct{}{})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls differ: %v vs %v", first, second)
	}
}

func TestAliases(t *testing.T) {
	t.Parallel()

	if got := Aliases("CI/CD"); len(got) == 0 {
		t.Error("expected aliases for ci/cd")
	}
	if got := Aliases("synergy"); got != nil {
		t.Errorf("unexpected aliases for synergy: %v", got)
	}
}
