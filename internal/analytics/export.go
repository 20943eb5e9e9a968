package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"sort"
	"strconv"
	"time"

	"assistant-api/internal/database"
)

var csvHeader = []string{
	"Conversation_ID",
	"Date",
	"Time",
	"Your_Message",
	"Assistant_Response",
	"Domain",
	"Your_Word_Count",
	"Response_Word_Count",
	"Timestamp_Full",
}

// ConversationsCSV renders the full conversation history as CSV,
// oldest conversation first.
func (s *Service) ConversationsCSV(ctx context.Context) ([]byte, error) {
	history, err := s.store.AllConversations(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, conv := range history {
		record := []string{
			strconv.FormatUint(uint64(conv.ID), 10),
			conv.CreatedAt.Format("2006-01-02"),
			conv.CreatedAt.Format("15:04:05"),
			conv.UserMessage,
			conv.AssistantReply,
			conv.Domain,
			strconv.Itoa(conv.UserWordCount),
			strconv.Itoa(conv.AssistantWordCount),
			conv.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "exported conversation history", "rows", len(history))

	return buf.Bytes(), nil
}

// DateRange bounds the exported history.
type DateRange struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
}

// UsageStats is the machine-readable usage export.
type UsageStats struct {
	ExportDate         string        `json:"export_date"`
	TotalConversations int           `json:"total_conversations"`
	DateRange          DateRange     `json:"date_range"`
	Domains            []DomainCount `json:"domains"`
	DailyUsage         []DailyCount  `json:"daily_usage"`
}

// UsageStats assembles the usage export: conversation totals, the date
// range covered, the domain breakdown, and per-day counts.
func (s *Service) UsageStats(ctx context.Context) (*UsageStats, error) {
	history, err := s.store.AllConversations(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	usage := &UsageStats{
		ExportDate:         time.Now().Format(time.RFC3339),
		TotalConversations: len(history),
		Domains:            stats.Domains,
		DailyUsage:         dailyUsage(history),
	}
	if len(history) > 0 {
		usage.DateRange.First = history[0].CreatedAt.Format("2006-01-02")
		usage.DateRange.Last = history[len(history)-1].CreatedAt.Format("2006-01-02")
	}

	return usage, nil
}

func dailyUsage(history []database.Conversation) []DailyCount {
	dates := make(map[string]int)
	for _, conv := range history {
		dates[conv.CreatedAt.Format("2006-01-02")]++
	}

	result := make([]DailyCount, 0, len(dates))
	for date, count := range dates {
		result = append(result, DailyCount{Date: date, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })

	return result
}
