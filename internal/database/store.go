package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveConversation inserts a new conversation record and prunes history
	// beyond maxHistory rows in the same transaction.
	SaveConversation(ctx context.Context, conv *Conversation, maxHistory int) error

	// RecentConversations retrieves the most recent 'limit' conversations
	// in chronological order.
	RecentConversations(ctx context.Context, limit int) ([]Conversation, error)

	// AllConversations retrieves the full stored history in chronological order.
	AllConversations(ctx context.Context) ([]Conversation, error)

	// CountConversations returns the number of stored conversations.
	CountConversations(ctx context.Context) (int, error)

	// DeleteAllConversations clears the stored history.
	DeleteAllConversations(ctx context.Context) error

	// GetProfile retrieves the user profile. Returns nil, nil if not set.
	GetProfile(ctx context.Context) (*Profile, error)

	// SaveProfile inserts or updates the user profile.
	SaveProfile(ctx context.Context, profile *Profile) error

	// DeleteProfile removes the stored user profile.
	DeleteProfile(ctx context.Context) error

	// PruneConversations deletes rows beyond the newest maxHistory entries.
	PruneConversations(ctx context.Context, maxHistory int) (int64, error)

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveConversation(ctx context.Context, conv *Conversation, maxHistory int) error {
	if conv == nil {
		return fmt.Errorf("cannot save nil conversation")
	}
	if conv.UserMessage == "" {
		return fmt.Errorf("conversation must have a non-empty user message")
	}
	if conv.AssistantReply == "" {
		return fmt.Errorf("conversation must have a non-empty assistant reply")
	}
	if conv.Domain == "" {
		conv.Domain = "general"
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving conversation", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	query := `
        INSERT INTO conversations (user_message, assistant_reply, domain, user_word_count, assistant_word_count, created_at)
        VALUES (:user_message, :assistant_reply, :domain, :user_word_count, :assistant_word_count, :created_at);
    `

	result, err := tx.NamedExecContext(ctx, query, conv)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving conversation", "domain", conv.Domain, "error", err)
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		conv.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving conversation", "error", err)
	}

	// History is capped: anything older than the newest maxHistory rows goes.
	if maxHistory > 0 {
		pruneQuery := `
            DELETE FROM conversations
            WHERE id NOT IN (SELECT id FROM conversations ORDER BY created_at DESC, id DESC LIMIT ?);
        `
		if _, err := tx.ExecContext(ctx, pruneQuery, maxHistory); err != nil {
			s.logger.ErrorContext(ctx, "Error pruning conversation history", "max_history", maxHistory, "error", err)
			return fmt.Errorf("failed to prune conversation history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Conversation saved successfully",
		"conversation_id", conv.ID, "domain", conv.Domain)
	return nil
}

func (s *sqlxStore) RecentConversations(ctx context.Context, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 5
		s.logger.DebugContext(ctx, "Invalid limit provided, using default", "default_limit", limit)
	} else if limit > 100 {
		limit = 100
		s.logger.DebugContext(ctx, "Limit exceeded maximum value, capping", "capped_limit", limit)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var conversations []Conversation
	query := `
        SELECT id, user_message, assistant_reply, domain, user_word_count, assistant_word_count, created_at
        FROM (
            SELECT * FROM conversations ORDER BY created_at DESC, id DESC LIMIT ?
        ) ORDER BY created_at ASC, id ASC;
    `
	if err := s.db.SelectContext(ctx, &conversations, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error retrieving recent conversations", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to retrieve recent conversations: %w", err)
	}

	return conversations, nil
}

func (s *sqlxStore) AllConversations(ctx context.Context) ([]Conversation, error) {
	var conversations []Conversation
	query := `
        SELECT id, user_message, assistant_reply, domain, user_word_count, assistant_word_count, created_at
        FROM conversations
        ORDER BY created_at ASC, id ASC;
    `
	if err := s.db.SelectContext(ctx, &conversations, query); err != nil {
		s.logger.ErrorContext(ctx, "Error retrieving conversation history", "error", err)
		return nil, fmt.Errorf("failed to retrieve conversation history: %w", err)
	}

	return conversations, nil
}

func (s *sqlxStore) CountConversations(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM conversations;`); err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) DeleteAllConversations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations;`); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting conversation history", "error", err)
		return fmt.Errorf("failed to delete conversation history: %w", err)
	}
	s.logger.InfoContext(ctx, "Conversation history deleted")
	return nil
}

func (s *sqlxStore) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	query := `
        SELECT id, name, role, work_area, family_info, interests, communication_style, help_areas, work_hours, created_at, updated_at
        FROM profiles
        WHERE id = 1;
    `
	if err := s.db.GetContext(ctx, &profile, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Error retrieving profile", "error", err)
		return nil, fmt.Errorf("failed to retrieve profile: %w", err)
	}

	return &profile, nil
}

func (s *sqlxStore) SaveProfile(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("cannot save nil profile")
	}

	now := time.Now().UTC()
	profile.UpdatedAt = now

	existing, err := s.GetProfile(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		// Keep the original creation timestamp across updates.
		profile.CreatedAt = existing.CreatedAt
	} else if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.ID = 1

	query := `
        INSERT INTO profiles (id, name, role, work_area, family_info, interests, communication_style, help_areas, work_hours, created_at, updated_at)
        VALUES (:id, :name, :role, :work_area, :family_info, :interests, :communication_style, :help_areas, :work_hours, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            role = excluded.role,
            work_area = excluded.work_area,
            family_info = excluded.family_info,
            interests = excluded.interests,
            communication_style = excluded.communication_style,
            help_areas = excluded.help_areas,
            work_hours = excluded.work_hours,
            updated_at = excluded.updated_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, profile); err != nil {
		s.logger.ErrorContext(ctx, "Error saving profile", "name", profile.Name, "error", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.DebugContext(ctx, "Profile saved successfully", "name", profile.Name)
	return nil
}

func (s *sqlxStore) DeleteProfile(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = 1;`); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting profile", "error", err)
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	s.logger.InfoContext(ctx, "Profile deleted")
	return nil
}

func (s *sqlxStore) PruneConversations(ctx context.Context, maxHistory int) (int64, error) {
	if maxHistory <= 0 {
		return 0, fmt.Errorf("max history must be positive, got %d", maxHistory)
	}

	query := `
        DELETE FROM conversations
        WHERE id NOT IN (SELECT id FROM conversations ORDER BY created_at DESC, id DESC LIMIT ?);
    `
	result, err := s.db.ExecContext(ctx, query, maxHistory)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning conversations", "max_history", maxHistory, "error", err)
		return 0, fmt.Errorf("failed to prune conversations: %w", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	if pruned > 0 {
		s.logger.InfoContext(ctx, "Pruned old conversations", "count", pruned, "max_history", maxHistory)
	}
	return pruned, nil
}

func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM;`); err != nil {
		s.logger.ErrorContext(ctx, "Error running database maintenance", "error", err)
		return fmt.Errorf("failed to run database maintenance: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
