package database_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"assistant-api/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func TestConversationLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv := &database.Conversation{
		UserMessage:        "Help me plan my day",
		AssistantReply:     "Sure, let's start with your priorities.",
		Domain:             "work",
		UserWordCount:      5,
		AssistantWordCount: 6,
	}

	if err := store.SaveConversation(ctx, conv, 100); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}
	if conv.ID == 0 {
		t.Error("expected conversation ID to be populated after save")
	}

	all, err := store.AllConversations(ctx)
	if err != nil {
		t.Fatalf("AllConversations failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("history length = %d, want 1", len(all))
	}
	if all[0].UserMessage != conv.UserMessage || all[0].AssistantReply != conv.AssistantReply {
		t.Errorf("stored conversation mismatch: got %+v", all[0])
	}
	if all[0].Domain != "work" {
		t.Errorf("domain = %q, want work", all[0].Domain)
	}

	count, err := store.CountConversations(ctx)
	if err != nil {
		t.Fatalf("CountConversations failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if err := store.DeleteAllConversations(ctx); err != nil {
		t.Fatalf("DeleteAllConversations failed: %v", err)
	}
	count, err = store.CountConversations(ctx)
	if err != nil {
		t.Fatalf("CountConversations after delete failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count after delete = %d, want 0", count)
	}
}

func TestSaveConversationValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveConversation(ctx, nil, 100); err == nil {
		t.Error("expected error for nil conversation")
	}
	if err := store.SaveConversation(ctx, &database.Conversation{AssistantReply: "hi"}, 100); err == nil {
		t.Error("expected error for missing user message")
	}
	if err := store.SaveConversation(ctx, &database.Conversation{UserMessage: "hi"}, 100); err == nil {
		t.Error("expected error for missing assistant reply")
	}
}

func TestHistoryCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		conv := &database.Conversation{
			UserMessage:    fmt.Sprintf("message %d", i),
			AssistantReply: fmt.Sprintf("reply %d", i),
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveConversation(ctx, conv, 10); err != nil {
			t.Fatalf("SaveConversation %d failed: %v", i, err)
		}
	}

	all, err := store.AllConversations(ctx)
	if err != nil {
		t.Fatalf("AllConversations failed: %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("history length = %d, want 10 after cap", len(all))
	}
	// The two oldest entries should have been pruned.
	if all[0].UserMessage != "message 2" {
		t.Errorf("oldest surviving message = %q, want %q", all[0].UserMessage, "message 2")
	}
	if all[len(all)-1].UserMessage != "message 11" {
		t.Errorf("newest message = %q, want %q", all[len(all)-1].UserMessage, "message 11")
	}
}

func TestRecentConversationsOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		conv := &database.Conversation{
			UserMessage:    fmt.Sprintf("message %d", i),
			AssistantReply: fmt.Sprintf("reply %d", i),
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveConversation(ctx, conv, 100); err != nil {
			t.Fatalf("SaveConversation %d failed: %v", i, err)
		}
	}

	recent, err := store.RecentConversations(ctx, 3)
	if err != nil {
		t.Fatalf("RecentConversations failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent length = %d, want 3", len(recent))
	}
	// Chronological order: oldest of the window first.
	for i, want := range []string{"message 2", "message 3", "message 4"} {
		if recent[i].UserMessage != want {
			t.Errorf("recent[%d] = %q, want %q", i, recent[i].UserMessage, want)
		}
	}
}

func TestProfileLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile, err := store.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile on empty db failed: %v", err)
	}
	if profile != nil {
		t.Fatal("expected nil profile on empty database")
	}

	p := &database.Profile{
		Name:               "Test User",
		Role:               "Student",
		CommunicationStyle: "Casual and friendly",
		HelpAreas:          database.StringList{"Learning new things"},
		WorkHours:          "Flexible schedule",
	}
	if err := store.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	created := p.CreatedAt

	loaded, err := store.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected profile after save")
	}
	if loaded.Name != "Test User" || loaded.Role != "Student" {
		t.Errorf("loaded profile mismatch: %+v", loaded)
	}
	if len(loaded.HelpAreas) != 1 || loaded.HelpAreas[0] != "Learning new things" {
		t.Errorf("help areas round trip failed: %v", loaded.HelpAreas)
	}

	// Updates keep the original creation timestamp.
	p.Interests = "Reading, cooking"
	if err := store.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile update failed: %v", err)
	}
	updated, err := store.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile after update failed: %v", err)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Errorf("created_at changed on update: %v != %v", updated.CreatedAt, created)
	}
	if updated.Interests != "Reading, cooking" {
		t.Errorf("interests = %q, want updated value", updated.Interests)
	}

	if err := store.DeleteProfile(ctx); err != nil {
		t.Fatalf("DeleteProfile failed: %v", err)
	}
	gone, err := store.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile after delete failed: %v", err)
	}
	if gone != nil {
		t.Error("expected nil profile after delete")
	}
}

func TestRunMaintenance(t *testing.T) {
	store := newTestStore(t)

	if err := store.RunMaintenance(context.Background()); err != nil {
		t.Fatalf("RunMaintenance failed: %v", err)
	}
}
