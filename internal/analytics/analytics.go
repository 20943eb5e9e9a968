// Package analytics derives usage statistics, conversation insights, and
// data exports from the stored conversation history.
package analytics

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"assistant-api/internal/database"
	"assistant-api/internal/memory"
)

// Service computes analytics over the conversation store.
type Service struct {
	store  database.Store
	logger *slog.Logger
}

// NewService creates an analytics service backed by the given store.
func NewService(store database.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:  store,
		logger: logger.With("component", "analytics"),
	}
}

// DomainCount is one entry of the per-domain breakdown.
type DomainCount struct {
	Domain  string  `json:"domain"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// DailyCount is one entry of the daily activity series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Statistics summarizes chat usage.
type Statistics struct {
	TotalConversations int           `json:"total_conversations"`
	LastChatDate       string        `json:"last_chat_date,omitempty"`
	TotalWords         int           `json:"total_words"`
	AvgPerDay          float64       `json:"avg_per_day"`
	Domains            []DomainCount `json:"domains"`
	DailyActivity      []DailyCount  `json:"daily_activity"`
}

// Statistics aggregates usage statistics over the whole history: totals,
// a per-domain breakdown with percentages sorted by frequency, and daily
// activity for the last seven active days.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	history, err := s.store.AllConversations(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		TotalConversations: len(history),
		Domains:            []DomainCount{},
		DailyActivity:      []DailyCount{},
	}
	if len(history) == 0 {
		return stats, nil
	}

	stats.LastChatDate = history[len(history)-1].CreatedAt.Format("2006-01-02")

	domains := make(map[string]int)
	dates := make(map[string]int)
	for _, conv := range history {
		stats.TotalWords += conv.UserWordCount + conv.AssistantWordCount

		domain := conv.Domain
		if domain == "" {
			domain = memory.DomainGeneral
		}
		domains[domain]++
		dates[conv.CreatedAt.Format("2006-01-02")]++
	}

	stats.AvgPerDay = float64(len(history)) / float64(len(dates))

	for domain, count := range domains {
		stats.Domains = append(stats.Domains, DomainCount{
			Domain:  domain,
			Count:   count,
			Percent: float64(count) / float64(len(history)) * 100,
		})
	}
	sort.Slice(stats.Domains, func(i, j int) bool {
		if stats.Domains[i].Count != stats.Domains[j].Count {
			return stats.Domains[i].Count > stats.Domains[j].Count
		}
		return stats.Domains[i].Domain < stats.Domains[j].Domain
	})

	for date, count := range dates {
		stats.DailyActivity = append(stats.DailyActivity, DailyCount{Date: date, Count: count})
	}
	sort.Slice(stats.DailyActivity, func(i, j int) bool {
		return stats.DailyActivity[i].Date < stats.DailyActivity[j].Date
	})
	if len(stats.DailyActivity) > 7 {
		stats.DailyActivity = stats.DailyActivity[len(stats.DailyActivity)-7:]
	}

	return stats, nil
}

// WordCount is a word paired with how often it occurred.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Evolution compares message length between the earliest and the most
// recent conversations.
type Evolution struct {
	FirstFiveAvgWords float64 `json:"first_five_avg_words"`
	LastFiveAvgWords  float64 `json:"last_five_avg_words"`
	Change            float64 `json:"change"`
}

// Insights reports what the user talks about and how they ask.
type Insights struct {
	TopWords         []WordCount `json:"top_words"`
	QuestionsAsked   int         `json:"questions_asked"`
	QuestionPercent  float64     `json:"question_percent"`
	QuestionStarters []WordCount `json:"question_starters"`
	Evolution        *Evolution  `json:"evolution,omitempty"`
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "may": {},
	"might": {}, "can": {}, "i": {}, "you": {}, "he": {}, "she": {},
	"it": {}, "we": {}, "they": {}, "me": {}, "him": {}, "her": {},
	"us": {}, "them": {}, "my": {}, "your": {}, "his": {}, "hers": {},
	"its": {}, "our": {}, "their": {}, "this": {}, "that": {},
	"these": {}, "those": {},
}

var questionStarters = map[string]struct{}{
	"what": {}, "how": {}, "why": {}, "when": {}, "where": {}, "who": {},
	"can": {}, "could": {}, "should": {}, "would": {}, "is": {}, "are": {},
	"do": {}, "does": {},
}

const (
	topWordLimit     = 15
	starterLimit     = 5
	evolutionMinimum = 10
	evolutionWindow  = 5
)

// Insights analyzes word usage, question patterns, and how conversation
// length has evolved. The evolution comparison requires at least ten
// stored conversations.
func (s *Service) Insights(ctx context.Context) (*Insights, error) {
	history, err := s.store.AllConversations(ctx)
	if err != nil {
		return nil, err
	}

	insights := &Insights{
		TopWords:         []WordCount{},
		QuestionStarters: []WordCount{},
	}
	if len(history) == 0 {
		return insights, nil
	}

	wordCounts := make(map[string]int)
	starters := make(map[string]int)

	for _, conv := range history {
		for _, word := range strings.Fields(strings.ToLower(conv.UserMessage)) {
			clean := keepLetters(word)
			if len(clean) <= 3 {
				continue
			}
			if _, stop := stopWords[clean]; stop {
				continue
			}
			wordCounts[clean]++
		}

		if strings.Contains(conv.UserMessage, "?") {
			insights.QuestionsAsked++

			fields := strings.Fields(conv.UserMessage)
			if len(fields) > 0 {
				first := strings.ToLower(strings.TrimRight(fields[0], "?,!."))
				if _, ok := questionStarters[first]; ok {
					starters[first]++
				}
			}
		}
	}

	insights.QuestionPercent = float64(insights.QuestionsAsked) / float64(len(history)) * 100
	insights.TopWords = topCounts(wordCounts, topWordLimit)
	insights.QuestionStarters = topCounts(starters, starterLimit)

	if len(history) >= evolutionMinimum {
		firstAvg := avgUserWords(history[:evolutionWindow])
		lastAvg := avgUserWords(history[len(history)-evolutionWindow:])
		insights.Evolution = &Evolution{
			FirstFiveAvgWords: firstAvg,
			LastFiveAvgWords:  lastAvg,
			Change:            lastAvg - firstAvg,
		}
	}

	return insights, nil
}

func avgUserWords(convs []database.Conversation) float64 {
	total := 0
	for _, conv := range convs {
		total += memory.CountWords(conv.UserMessage)
	}
	return float64(total) / float64(len(convs))
}

func topCounts(counts map[string]int, limit int) []WordCount {
	result := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		result = append(result, WordCount{Word: word, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Word < result[j].Word
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

func keepLetters(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
