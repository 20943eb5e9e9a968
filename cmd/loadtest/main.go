// Package main contains a response-time check for the assistant: it times
// completions against the configured provider and measures local storage
// throughput, printing a verdict for each.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"assistant-api/internal/ai"
	"assistant-api/internal/config"
	"assistant-api/internal/database"
	"assistant-api/internal/logger"
	"assistant-api/internal/memory"
)

var testPrompts = []string{
	"Hello",
	"What's the weather like?",
	"Help me plan my day",
	"Tell me a short joke",
	"Explain artificial intelligence",
}

const storageRounds = 50

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	skipAPI := flag.Bool("skip-api", false, "Skip provider response time checks")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.New("warn", "text")

	if !*skipAPI {
		if code := checkCompletionLatency(ctx, cfg, log); code != 0 {
			return code
		}
	}

	return checkStorageLatency(log)
}

func checkCompletionLatency(ctx context.Context, cfg *config.Config, log *slog.Logger) int {
	client, err := ai.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize completion client: %v\n", err)
		return 1
	}

	fmt.Printf("Testing %s response times with %d prompts...\n\n", cfg.AI.Provider, len(testPrompts))

	var total time.Duration
	minTime := time.Duration(-1)
	var maxTime time.Duration
	succeeded := 0

	for i, prompt := range testPrompts {
		start := time.Now()
		reply, err := client.Reply(ctx, "You are a helpful assistant.", prompt)
		elapsed := time.Since(start)

		if err != nil {
			fmt.Printf("%d. %-35q FAILED: %v\n", i+1, prompt, err)
			continue
		}

		fmt.Printf("%d. %-35q %6.2fs (%d chars)\n", i+1, prompt, elapsed.Seconds(), len(reply))
		total += elapsed
		succeeded++
		if minTime < 0 || elapsed < minTime {
			minTime = elapsed
		}
		if elapsed > maxTime {
			maxTime = elapsed
		}
	}

	if succeeded == 0 {
		fmt.Println("\nAll completion requests failed.")
		return 1
	}

	avg := total / time.Duration(succeeded)
	fmt.Printf("\nCompletion latency: min %.2fs / avg %.2fs / max %.2fs over %d prompts\n",
		minTime.Seconds(), avg.Seconds(), maxTime.Seconds(), succeeded)
	fmt.Printf("Verdict: %s\n\n", latencyVerdict(avg))
	return 0
}

func latencyVerdict(avg time.Duration) string {
	switch {
	case avg < 2*time.Second:
		return "excellent, well within interactive range"
	case avg < 5*time.Second:
		return "acceptable for a personal assistant"
	default:
		return "slow, consider a smaller model or lower max_tokens"
	}
}

func checkStorageLatency(log *slog.Logger) int {
	dir, err := os.MkdirTemp("", "assistant-loadtest-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(dir)

	db, err := database.NewDB(filepath.Join(dir, "loadtest.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		return 1
	}
	defer database.CloseDB(db)

	store := database.NewStore(db, log)
	mem := memory.NewService(store, config.MemoryConfig{
		MaxConversations: storageRounds * 2,
		RecentLimit:      3,
		RelevantLimit:    2,
	}, log)

	ctx := context.Background()

	start := time.Now()
	for i := 0; i < storageRounds; i++ {
		if _, err := mem.Record(ctx,
			fmt.Sprintf("Test message number %d about work and planning", i),
			"A reasonably sized assistant reply used for timing storage writes.",
		); err != nil {
			fmt.Fprintf(os.Stderr, "failed to record conversation: %v\n", err)
			return 1
		}
	}
	writeTime := time.Since(start)

	start = time.Now()
	history, err := mem.History(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to reload history: %v\n", err)
		return 1
	}
	readTime := time.Since(start)

	fmt.Printf("Storage: wrote %d conversations in %.3fs (%.1f/s), reloaded %d in %.3fs\n",
		storageRounds, writeTime.Seconds(),
		float64(storageRounds)/writeTime.Seconds(),
		len(history), readTime.Seconds())

	if writeTime > 10*time.Second {
		fmt.Println("Verdict: storage is unusually slow, check disk performance")
		return 1
	}
	fmt.Println("Verdict: storage performance is fine")
	return 0
}
