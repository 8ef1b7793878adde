package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dairy-order-service/internal/entity"

	"github.com/google/uuid"
)

type FeedLogService struct {
	feedLogRepo FeedLogStore
	now         func() time.Time
}

func NewFeedLogService(feedLogRepo FeedLogStore) *FeedLogService {
	return &FeedLogService{feedLogRepo: feedLogRepo, now: time.Now}
}

// SaveDailyFeedLogs replaces every log of the cow for the date with the entries of positive quantity.
// The day's notes are stored on each entry.
func (s *FeedLogService) SaveDailyFeedLogs(ctx context.Context, cowID, date string, entries []entity.FeedInput, notes string) ([]entity.FeedLog, error) {
	v := &ValidationError{}
	if strings.TrimSpace(cowID) == "" {
		v.add("cow_id", "Cow is required.")
	}
	validateDate(v, "date", date, "Date is required.")
	for _, entry := range entries {
		if !entity.KnownFood(entry.FoodName) {
			v.add("food_name", fmt.Sprintf("Unknown food %q.", entry.FoodName))
		}
		if entry.QuantityKg.IsNegative() {
			v.add("quantity_kg", "Quantity must not be negative.")
		}
	}
	if len(notes) > maxNotesLength {
		v.add("notes", "Notes too long.")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	now := s.now()
	logs := []entity.FeedLog{}
	for _, entry := range entries {
		if !entry.QuantityKg.IsPositive() {
			continue
		}
		logs = append(logs, entity.FeedLog{
			ID:          uuid.NewString(),
			CowID:       cowID,
			Date:        date,
			FoodName:    entry.FoodName,
			QuantityKg:  entry.QuantityKg,
			Notes:       notes,
			DateAdded:   now,
			LastUpdated: now,
		})
	}

	if err := s.feedLogRepo.ReplaceDailyFeedLogs(ctx, cowID, date, logs); err != nil {
		logger.Error().Err(err).Msgf("Error saving feed logs of cow %s for %s", cowID, date)
		return nil, fmt.Errorf("save feed logs of cow %s for %s: %w", cowID, date, err)
	}

	return logs, nil
}

func (s *FeedLogService) DeleteFeedLogsForDay(ctx context.Context, cowID, date string) (bool, error) {
	deleted, err := s.feedLogRepo.DeleteFeedLogsForDay(ctx, cowID, date)
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting feed logs of cow %s for %s", cowID, date)
		return false, fmt.Errorf("delete feed logs of cow %s for %s: %w", cowID, date, err)
	}
	return deleted, nil
}

func (s *FeedLogService) GetFeedLogs(ctx context.Context, cowID, date string) ([]entity.FeedLog, error) {
	logs, err := s.feedLogRepo.GetFeedLogsByCowAndDate(ctx, cowID, date)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting feed logs of cow %s for %s", cowID, date)
		return nil, fmt.Errorf("get feed logs of cow %s for %s: %w", cowID, date, err)
	}
	return logs, nil
}
