package memory_test

import (
	"testing"

	"assistant-api/internal/memory"
)

func TestClassifyDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "empty message",
			message: "",
			want:    "general",
		},
		{
			name:    "no keyword matches",
			message: "hello there friend",
			want:    "general",
		},
		{
			name:    "work meeting",
			message: "I have a meeting tomorrow with my boss",
			want:    "work",
		},
		{
			name:    "entertainment movie night",
			message: "What movie should I watch tonight",
			want:    "entertainment",
		},
		{
			name:    "family dinner",
			message: "Tell me about fun ideas for a family dinner",
			want:    "family",
		},
		{
			name:    "health workout",
			message: "I need a workout plan from my doctor",
			want:    "health",
		},
		{
			name:    "learning a skill",
			message: "how to learn a new skill quickly",
			want:    "learning",
		},
		{
			name:    "finance budget",
			message: "Help me set up a monthly budget and track my income",
			want:    "finance",
		},
		{
			name:    "substring only match",
			message: "my coworker is nice",
			want:    "work",
		},
		{
			name:    "punctuation adjacent keyword still counts",
			message: "should I change my job?",
			want:    "work",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := memory.ClassifyDomain(tc.message); got != tc.want {
				t.Errorf("ClassifyDomain(%q) = %q, want %q", tc.message, got, tc.want)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"help me plan my day", 5},
		{"  spaced   out\twords\n", 3},
	}

	for _, tc := range tests {
		if got := memory.CountWords(tc.input); got != tc.want {
			t.Errorf("CountWords(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}
