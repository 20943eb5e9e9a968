package ai_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"assistant-api/internal/ai"
	"assistant-api/internal/database"
)

func TestBuildSystemPromptWithoutProfile(t *testing.T) {
	t.Parallel()

	prompt := ai.BuildSystemPrompt(ai.PromptContext{})
	if prompt != "You are a helpful personal assistant." {
		t.Errorf("empty context prompt = %q", prompt)
	}

	prompt = ai.BuildSystemPrompt(ai.PromptContext{
		Recent: []database.Conversation{
			{UserMessage: "hello", AssistantReply: "hi there"},
		},
	})
	if !strings.HasPrefix(prompt, "You are a helpful personal assistant.") {
		t.Errorf("prompt missing generic preamble: %q", prompt)
	}
	if !strings.Contains(prompt, "Recent context:") {
		t.Errorf("prompt missing recent context section: %q", prompt)
	}
	if !strings.Contains(prompt, "- Recent: hello -> hi there") {
		t.Errorf("prompt missing recent exchange: %q", prompt)
	}
}

func TestBuildSystemPromptWithProfile(t *testing.T) {
	t.Parallel()

	pc := ai.PromptContext{
		Profile: &database.Profile{
			Name:               "Alex",
			Role:               "Working Professional",
			WorkArea:           "Software Engineering",
			CommunicationStyle: "Direct and brief",
			WorkHours:          "Morning person",
			Interests:          "Reading, chess",
			HelpAreas:          database.StringList{"Work tasks", "Learning new things"},
		},
		Relevant: []database.Conversation{
			{UserMessage: "How should I structure my sprint planning meetings for the team", AssistantReply: "Keep them short."},
		},
		Recent: []database.Conversation{
			{UserMessage: "first", AssistantReply: "one"},
			{UserMessage: "second", AssistantReply: "two"},
			{UserMessage: "third", AssistantReply: "three"},
		},
	}

	prompt := ai.BuildSystemPrompt(pc)

	for _, want := range []string{
		"You are a personalized assistant for Alex.",
		"- Role: Working Professional",
		"- Work/Study: Software Engineering",
		"- Communication style: Direct and brief",
		"- Work schedule: Morning person",
		"- Interests: Reading, chess",
		"- Family: Not specified",
		"- Areas they want help with: Work tasks, Learning new things",
		"Previous relevant conversations:",
		"Respond in a direct and brief way",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	// Only the last two recent exchanges make it into the prompt.
	if strings.Contains(prompt, "- Recent: first") {
		t.Error("prompt should not include the oldest recent exchange")
	}
	for _, want := range []string{"- Recent: second -> two", "- Recent: third -> three"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Long relevant messages are truncated at 60 characters.
	if !strings.Contains(prompt, "How should I structure my sprint planning meetings for the t...") {
		t.Errorf("relevant conversation not truncated as expected:\n%s", prompt)
	}
}

func TestBuildSystemPromptTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	// 59 ASCII characters followed by a two-byte rune: byte slicing at 60
	// would split the rune in half.
	message := strings.Repeat("a", 59) + "éxtra detail that pushes past the limit"
	prompt := ai.BuildSystemPrompt(ai.PromptContext{
		Relevant: []database.Conversation{
			{UserMessage: message, AssistantReply: "noted"},
		},
	})

	if !utf8.ValidString(prompt) {
		t.Fatalf("prompt contains invalid UTF-8:\n%s", prompt)
	}
	if want := strings.Repeat("a", 59) + "é..."; !strings.Contains(prompt, want) {
		t.Errorf("prompt missing rune-boundary truncation %q:\n%s", want, prompt)
	}
}
