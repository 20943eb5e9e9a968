// Package memory implements the assistant's conversation memory: persistent
// history with a size cap, recency windows, keyword relevance search, and
// topic domain classification.
package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"assistant-api/internal/config"
	"assistant-api/internal/database"
)

var nonWordChars = regexp.MustCompile(`[^\w\s]`)

// Service coordinates conversation memory on top of the database store.
type Service struct {
	store  database.Store
	cfg    config.MemoryConfig
	logger *slog.Logger
}

// NewService creates a conversation memory service.
func NewService(store database.Store, cfg config.MemoryConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "memory"),
	}
}

// Record classifies and persists a completed exchange. History beyond the
// configured cap is pruned as part of the save.
func (s *Service) Record(ctx context.Context, userMessage, assistantReply string) (*database.Conversation, error) {
	userMessage = strings.TrimSpace(userMessage)
	assistantReply = strings.TrimSpace(assistantReply)
	if userMessage == "" || assistantReply == "" {
		return nil, fmt.Errorf("both user message and assistant reply are required")
	}

	conv := &database.Conversation{
		UserMessage:        userMessage,
		AssistantReply:     assistantReply,
		Domain:             ClassifyDomain(userMessage),
		UserWordCount:      CountWords(userMessage),
		AssistantWordCount: CountWords(assistantReply),
	}

	if err := s.store.SaveConversation(ctx, conv, s.cfg.MaxConversations); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Conversation recorded",
		"domain", conv.Domain, "user_words", conv.UserWordCount)
	return conv, nil
}

// Recent returns the most recent conversations, oldest first, limited by
// the configured recency window.
func (s *Service) Recent(ctx context.Context) ([]database.Conversation, error) {
	return s.store.RecentConversations(ctx, s.cfg.RecentLimit)
}

// History returns the full stored conversation history in chronological order.
func (s *Service) History(ctx context.Context) ([]database.Conversation, error) {
	return s.store.AllConversations(ctx)
}

// Relevant finds past conversations related to the query. Query words shorter
// than three characters are ignored; a conversation's relevance is the share
// of remaining query words found in its combined user and assistant text.
// Results are ordered by descending relevance, capped at the configured limit.
func (s *Service) Relevant(ctx context.Context, query string) ([]database.Conversation, error) {
	words := queryWords(query)
	if len(words) == 0 {
		return nil, nil
	}

	history, err := s.store.AllConversations(ctx)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}

	type scored struct {
		conv  database.Conversation
		score float64
	}

	var relevant []scored
	for _, conv := range history {
		text := nonWordChars.ReplaceAllString(
			strings.ToLower(conv.UserMessage+" "+conv.AssistantReply), "")

		matches := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				matches++
			}
		}
		if matches > 0 {
			relevant = append(relevant, scored{
				conv:  conv,
				score: float64(matches) / float64(len(words)),
			})
		}
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].score > relevant[j].score
	})

	limit := s.cfg.RelevantLimit
	if limit > len(relevant) {
		limit = len(relevant)
	}

	result := make([]database.Conversation, 0, limit)
	for _, r := range relevant[:limit] {
		result = append(result, r.conv)
	}
	return result, nil
}

// Stats summarizes the stored history.
type Stats struct {
	TotalConversations int            `json:"total_conversations"`
	TotalWords         int            `json:"total_words"`
	Domains            map[string]int `json:"domains"`
	Dates              map[string]int `json:"dates"`
}

// Stats aggregates conversation counts, word totals, and per-domain and
// per-date breakdowns over the whole stored history.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	history, err := s.store.AllConversations(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Domains: make(map[string]int),
		Dates:   make(map[string]int),
	}

	for _, conv := range history {
		stats.TotalConversations++
		stats.TotalWords += conv.UserWordCount + conv.AssistantWordCount

		domain := conv.Domain
		if domain == "" {
			domain = DomainGeneral
		}
		stats.Domains[domain]++
		stats.Dates[conv.CreatedAt.Format("2006-01-02")]++
	}

	return stats, nil
}

// Reset clears the stored conversation history.
func (s *Service) Reset(ctx context.Context) error {
	return s.store.DeleteAllConversations(ctx)
}

// CountWords counts whitespace-separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

func queryWords(query string) []string {
	cleaned := nonWordChars.ReplaceAllString(strings.ToLower(query), "")

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}
