package ai

import (
	"fmt"
	"strings"

	"assistant-api/internal/database"
)

const genericSystemPrompt = "You are a helpful personal assistant."

// PromptContext carries everything the prompt builder personalizes with:
// the user profile (nil when none is set) plus relevant and recent
// conversations from memory.
type PromptContext struct {
	Profile  *database.Profile
	Relevant []database.Conversation
	Recent   []database.Conversation
}

// BuildSystemPrompt assembles the system prompt for a chat completion.
// Relevant past discussions are quoted briefly, the tail of the recent
// window is summarized, and the profile, when present, shapes the
// assistant's persona and tone.
func BuildSystemPrompt(pc PromptContext) string {
	memoryContext := buildMemoryContext(pc.Relevant, pc.Recent)

	if pc.Profile == nil {
		if memoryContext == "" {
			return genericSystemPrompt
		}
		return genericSystemPrompt + "\n" + memoryContext
	}

	p := pc.Profile

	family := p.FamilyInfo
	if family == "" {
		family = "Not specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a personalized assistant for %s.\n\n", p.Name)
	b.WriteString("About them:\n")
	fmt.Fprintf(&b, "- Role: %s\n", p.Role)
	fmt.Fprintf(&b, "- Work/Study: %s\n", p.WorkArea)
	fmt.Fprintf(&b, "- Communication style: %s\n", p.CommunicationStyle)
	fmt.Fprintf(&b, "- Work schedule: %s\n", p.WorkHours)
	fmt.Fprintf(&b, "- Interests: %s\n", p.Interests)
	fmt.Fprintf(&b, "- Family: %s\n", family)
	fmt.Fprintf(&b, "- Areas they want help with: %s\n", strings.Join(p.HelpAreas, ", "))

	if memoryContext != "" {
		b.WriteString("\n")
		b.WriteString(memoryContext)
	}

	fmt.Fprintf(&b, "\nRespond in a %s way, considering their background and previous conversations.\n",
		strings.ToLower(p.CommunicationStyle))
	b.WriteString("Reference their interests and past discussions when relevant.")

	return b.String()
}

func buildMemoryContext(relevant, recent []database.Conversation) string {
	var b strings.Builder

	if len(relevant) > 0 {
		b.WriteString("Previous relevant conversations:\n")
		for _, conv := range relevant {
			fmt.Fprintf(&b, "- You previously discussed: '%s'\n", truncate(conv.UserMessage, 60))
		}
	}

	if len(recent) > 0 {
		// Only the tail of the recency window goes into the prompt.
		tail := recent
		if len(tail) > 2 {
			tail = tail[len(tail)-2:]
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Recent context:\n")
		for _, conv := range tail {
			fmt.Fprintf(&b, "- Recent: %s -> %s\n",
				truncate(conv.UserMessage, 40), truncate(conv.AssistantReply, 40))
		}
	}

	return b.String()
}

// truncate limits s to maxLen characters, counting runes so multi-byte
// text is never cut mid-character.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
