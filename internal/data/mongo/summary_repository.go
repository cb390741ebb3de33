package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/platform/persistence"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SummaryRepository implements the summary.Repository interface for MongoDB
type SummaryRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewSummaryRepository creates a new MongoDB daily summary repository
func NewSummaryRepository(logger *slog.Logger, db *mongo.Database) summary.Repository {
	return &SummaryRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert applies patch with $set so fields outside the patch survive.
// The business key is seeded on insert.
func (r *SummaryRepository) Upsert(ctx context.Context, businessID string, day businessday.Day, patch summary.Patch) error {
	if len(patch) == 0 {
		return nil
	}

	collection := r.db.Collection(persistence.CollectionDailySummaries)

	onInsert := bson.M{"businessId": businessID}
	if _, ok := patch["day"]; !ok {
		onInsert["day"] = string(day)
	}

	filter := bson.M{"businessId": businessID, "day": string(day)}
	update := bson.M{
		"$set":         bson.M(patch),
		"$setOnInsert": onInsert,
	}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to upsert daily summary",
			"business_id", businessID,
			"day", day,
			"error", err)
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}

	return nil
}

// Get returns the summary document for the business day
func (r *SummaryRepository) Get(ctx context.Context, businessID string, day businessday.Day) (*summary.DailySummary, error) {
	collection := r.db.Collection(persistence.CollectionDailySummaries)

	filter := bson.M{"businessId": businessID, "day": string(day)}
	var doc summary.DailySummary
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, summary.ErrSummaryNotFound{BusinessID: businessID, Day: day}
		}
		r.logger.Error("Failed to get daily summary",
			"business_id", businessID,
			"day", day,
			"error", err)
		return nil, fmt.Errorf("failed to get daily summary: %w", err)
	}

	return &doc, nil
}

// ListActiveDays returns the days with hasTxn set, oldest first
func (r *SummaryRepository) ListActiveDays(ctx context.Context, businessID string, from businessday.Day) ([]businessday.Day, error) {
	collection := r.db.Collection(persistence.CollectionDailySummaries)

	filter := bson.M{
		"businessId": businessID,
		"hasTxn":     true,
		"day":        bson.M{"$gte": string(from)},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "day", Value: 1}}).
		SetProjection(bson.M{"day": 1, "_id": 0})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list active days",
			"business_id", businessID,
			"from", from,
			"error", err)
		return nil, fmt.Errorf("failed to list active days: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Day businessday.Day `bson:"day"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		r.logger.Error("Failed to decode active days",
			"business_id", businessID,
			"error", err)
		return nil, fmt.Errorf("failed to decode active days: %w", err)
	}

	days := make([]businessday.Day, 0, len(rows))
	for _, row := range rows {
		days = append(days, row.Day)
	}
	return days, nil
}
