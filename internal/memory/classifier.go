package memory

import "strings"

// DomainGeneral is the fallback domain for messages that match no topic.
const DomainGeneral = "general"

// domainKeywords maps each topic domain to the keywords that signal it.
// A whole-word hit scores full weight, a substring hit scores 0.7.
var domainKeywords = map[string][]string{
	"work": {
		"work", "job", "meeting", "deadline", "project", "career", "office",
		"task", "productivity", "business", "colleague", "boss", "employee",
		"salary", "promotion",
	},
	"family": {
		"family", "kids", "children", "spouse", "parent", "home", "dinner",
		"birthday", "vacation", "husband", "wife", "mother", "father", "son",
		"daughter",
	},
	"entertainment": {
		"movie", "music", "game", "book", "netflix", "fun", "hobby", "watch",
		"read", "play", "entertainment", "show", "series", "film",
	},
	"health": {
		"health", "exercise", "fitness", "doctor", "medical", "diet",
		"workout", "medicine", "hospital", "symptoms", "sick", "wellness",
	},
	"learning": {
		"learn", "study", "education", "course", "skill", "tutorial",
		"how to", "teach", "school", "university", "training", "knowledge",
	},
	"finance": {
		"money", "budget", "finance", "investment", "savings", "bank",
		"loan", "credit", "debt", "financial", "income", "expense",
	},
}

const (
	wholeWordWeight = 1.0
	substringWeight = 0.7
)

// ClassifyDomain assigns a topic domain to a message based on weighted
// keyword matches. Whole-word matches outweigh substring matches; a message
// with no matches at all is classified as general.
func ClassifyDomain(message string) string {
	if message == "" {
		return DomainGeneral
	}

	messageLower := strings.ToLower(message)
	padded := " " + messageLower + " "

	bestDomain := DomainGeneral
	bestScore := 0.0

	// Iterate in a fixed order so ties resolve deterministically.
	for _, domain := range []string{"work", "family", "entertainment", "health", "learning", "finance"} {
		score := 0.0
		for _, keyword := range domainKeywords[domain] {
			if strings.Contains(padded, " "+keyword+" ") {
				score += wholeWordWeight
			} else if strings.Contains(messageLower, keyword) {
				score += substringWeight
			}
		}
		if score > bestScore {
			bestScore = score
			bestDomain = domain
		}
	}

	return bestDomain
}

// Domains returns the known topic domains, excluding the general fallback.
func Domains() []string {
	return []string{"work", "family", "entertainment", "health", "learning", "finance"}
}
