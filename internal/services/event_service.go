package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"streambet/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventService handles event records and their computed bet statuses
type EventService struct {
	db *gorm.DB
}

// NewEventService creates a new event service
func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent persists a new event in the scheduled state
func (s *EventService) CreateEvent(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error) {
	event := &models.Event{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Tags:            req.Tags,
		StreamURL:       req.StreamURL,
		PreviewImageURL: req.PreviewImageURL,
		StreamerID:      req.StreamerID,
		State:           models.EventStateScheduled,
		Date:            req.Date,
		Slug:            req.Slug,
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

// GetEvent retrieves an event with its bets and outcomes
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).
		Preload("Bets.Outcomes").
		First(&event, "id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}
	return &event, nil
}

// ListEvents retrieves all events, newest first
func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Preload("Bets.Outcomes").
		Order("date DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// CalculateAllBetsStatus stamps the computed status onto every bet of the
// event. Status is a pure function of the clock and the resolution state;
// nothing is persisted.
func (s *EventService) CalculateAllBetsStatus(event *models.Event) *models.Event {
	now := time.Now()
	for i := range event.Bets {
		event.Bets[i].Status = event.Bets[i].ComputedStatus(now)
	}
	return event
}

// SetStreamState flips the live state of the event linked to the given
// upstream broadcaster. Called by the stream webhook.
func (s *EventService) SetStreamState(ctx context.Context, streamerID string, state models.EventState) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, "streamer_id = ?", streamerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no event for streamer %s: %w", streamerID, ErrNotFound)
			}
			return fmt.Errorf("failed to load event for streamer %s: %w", streamerID, err)
		}

		event.State = state
		if err := tx.Save(&event).Error; err != nil {
			return fmt.Errorf("failed to update event state: %w", err)
		}
		return nil
	})
}
