// Package mongo provides MongoDB implementations of the domain repositories.
// The earnings history is append-only; entries are written once and never
// updated.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medichain-payments/internal/domain/earnings"
	"github.com/medichain-payments/internal/domain/shared"
)

const (
	// HistoryCollectionName is the earnings history collection in MongoDB
	HistoryCollectionName = "earnings_history"
)

// historyDocument is the stored shape of a history entry. Amounts are kept
// as decimal strings so the stored value is exact and human-readable.
type historyDocument struct {
	ID            uuid.UUID `bson:"_id"`
	PayeeID       string    `bson:"payee_id"`
	TransactionID uuid.UUID `bson:"transaction_id"`
	Kind          string    `bson:"kind"`
	Amount        string    `bson:"amount"`
	PlatformFee   string    `bson:"platform_fee"`
	Currency      string    `bson:"currency"`
	Timestamp     time.Time `bson:"timestamp"`
}

// HistoryRepository implements earnings.HistoryRepository for MongoDB
type HistoryRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewHistoryRepository creates a new MongoDB earnings history repository
func NewHistoryRepository(logger *slog.Logger, db *mongo.Database) earnings.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a new history entry
func (r *HistoryRepository) Append(ctx context.Context, entry *earnings.HistoryEntry) error {
	collection := r.db.Collection(HistoryCollectionName)

	doc := historyDocument{
		ID:            entry.ID,
		PayeeID:       entry.PayeeID,
		TransactionID: entry.TransactionID,
		Kind:          string(entry.Kind),
		Amount:        entry.Amount.String(),
		PlatformFee:   entry.PlatformFee.String(),
		Currency:      string(entry.Currency),
		Timestamp:     entry.Timestamp,
	}

	if _, err := collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to append earnings history entry",
			"payee_id", entry.PayeeID,
			"transaction_id", entry.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to append earnings history entry: %w", err)
	}

	return nil
}

// ListByPayee retrieves paginated history entries for a payee, newest first
func (r *HistoryRepository) ListByPayee(ctx context.Context, payeeID string, limit, offset int) ([]*earnings.HistoryEntry, error) {
	collection := r.db.Collection(HistoryCollectionName)

	filter := bson.M{"payee_id": payeeID}
	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list earnings history", "payee_id", payeeID, "error", err)
		return nil, fmt.Errorf("failed to list earnings history: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []historyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode earnings history", "payee_id", payeeID, "error", err)
		return nil, fmt.Errorf("failed to decode earnings history: %w", err)
	}

	entries := make([]*earnings.HistoryEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := doc.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CountByPayee counts history entries for a payee
func (r *HistoryRepository) CountByPayee(ctx context.Context, payeeID string) (int64, error) {
	collection := r.db.Collection(HistoryCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"payee_id": payeeID})
	if err != nil {
		r.logger.Error("Failed to count earnings history", "payee_id", payeeID, "error", err)
		return 0, fmt.Errorf("failed to count earnings history: %w", err)
	}
	return count, nil
}

func (d historyDocument) toEntry() (*earnings.HistoryEntry, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount in history entry %s: %w", d.ID, err)
	}
	platformFee, err := decimal.NewFromString(d.PlatformFee)
	if err != nil {
		return nil, fmt.Errorf("corrupt platform fee in history entry %s: %w", d.ID, err)
	}

	return &earnings.HistoryEntry{
		ID:            d.ID,
		PayeeID:       d.PayeeID,
		TransactionID: d.TransactionID,
		Kind:          earnings.HistoryKind(d.Kind),
		Amount:        amount,
		PlatformFee:   platformFee,
		Currency:      shared.Currency(d.Currency),
		Timestamp:     d.Timestamp,
	}, nil
}
