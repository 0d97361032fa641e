package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
)

// ChannelService handles business logic for channel operations
type ChannelService struct {
	repos *db.Repositories
}

// NewChannelService creates a new channel service instance
func NewChannelService(repos *db.Repositories) *ChannelService {
	return &ChannelService{
		repos: repos,
	}
}

// CreateChannel creates a new channel with validation
func (s *ChannelService) CreateChannel(ctx context.Context, name, number string, icon *string) (*models.Channel, error) {
	if err := s.validateUniqueness(ctx, name, number, uuid.Nil); err != nil {
		logger.Log.Warn().
			Str("name", name).
			Str("number", number).
			Msg("Channel creation failed: duplicate name or number")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	channel := models.NewChannel(name, number)
	channel.Icon = icon

	if err := s.repos.Channels.Create(ctx, channel); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", name).
			Msg("Failed to create channel in database")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", channel.ID.String()).
		Str("name", channel.Name).
		Str("number", channel.Number).
		Msg("Channel created successfully")

	return channel, nil
}

// GetByID retrieves a channel by its ID
func (s *ChannelService) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	channel, err := s.repos.Channels.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrChannelNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to get channel by ID")
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return channel, nil
}

// List retrieves all channels
func (s *ChannelService) List(ctx context.Context) ([]*models.Channel, error) {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list channels")
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	return channels, nil
}

// UpdateChannel updates an existing channel with validation
func (s *ChannelService) UpdateChannel(ctx context.Context, channel *models.Channel) error {
	existing, err := s.GetByID(ctx, channel.ID)
	if err != nil {
		return err
	}

	if !strings.EqualFold(existing.Name, channel.Name) || existing.Number != channel.Number {
		if err := s.validateUniqueness(ctx, channel.Name, channel.Number, channel.ID); err != nil {
			logger.Log.Warn().
				Str("channel_id", channel.ID.String()).
				Str("name", channel.Name).
				Msg("Channel update failed: duplicate name or number")
			return fmt.Errorf("failed to update channel: %w", err)
		}
	}

	channel.UpdatedAt = time.Now().UTC()

	if err := s.repos.Channels.Update(ctx, channel); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", channel.ID.String()).
			Msg("Failed to update channel in database")
		return fmt.Errorf("failed to update channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", channel.ID.String()).
		Str("name", channel.Name).
		Msg("Channel updated successfully")

	return nil
}

// DeleteChannel deletes a channel and its playout, if one exists.
// Enumerator states, history and playout items cascade with the playout.
func (s *ChannelService) DeleteChannel(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	playout, err := s.repos.Playouts.GetByChannelID(ctx, id)
	if err != nil && !db.IsNotFound(err) {
		return fmt.Errorf("failed to check channel playout: %w", err)
	}
	if playout != nil {
		if err := s.repos.Playouts.Delete(ctx, playout.ID); err != nil {
			logger.Log.Error().
				Err(err).
				Str("channel_id", id.String()).
				Str("playout_id", playout.ID.String()).
				Msg("Failed to delete channel playout")
			return fmt.Errorf("failed to delete channel playout: %w", err)
		}
	}

	if err := s.repos.Channels.Delete(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to delete channel from database")
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", id.String()).
		Msg("Channel deleted successfully")

	return nil
}

// validateUniqueness checks name (case-insensitive) and number uniqueness.
// excludeID allows excluding a specific channel ID (for updates).
func (s *ChannelService) validateUniqueness(ctx context.Context, name, number string, excludeID uuid.UUID) error {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to validate uniqueness: %w", err)
	}

	nameLower := strings.ToLower(strings.TrimSpace(name))

	for _, channel := range channels {
		if channel.ID == excludeID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(channel.Name)) == nameLower {
			return ErrDuplicateChannelName
		}
		if channel.Number == number {
			return ErrDuplicateChannelNumber
		}
	}

	return nil
}
