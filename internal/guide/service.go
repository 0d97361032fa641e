// Package guide exposes read-only program-guide views over a built
// playout: the item playing now, merged guide windows, and an HLS
// playlist rendering of a window.
package guide

import (
	"context"
	"errors"
	"time"

	"github.com/Eyevinn/hls-m3u8/m3u8"
	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/models"
)

// ErrNoActiveItem means nothing is playing at the queried moment
var ErrNoActiveItem = errors.New("no playout item active at the requested time")

// Entry is one guide row. Filler items are folded into the primary
// content sharing their guide group, so an entry spans the whole
// surround sequence.
type Entry struct {
	Start       time.Time  `json:"start"`
	Finish      time.Time  `json:"finish"`
	Title       string     `json:"title"`
	ShowName    *string    `json:"show_name,omitempty"`
	Season      *int       `json:"season,omitempty"`
	Episode     *int       `json:"episode,omitempty"`
	MediaItemID uuid.UUID  `json:"media_item_id"`
	GuideGroup  int        `json:"guide_group"`
}

type Service struct {
	repos *db.Repositories
}

func NewService(repos *db.Repositories) *Service {
	return &Service{repos: repos}
}

// ActiveItem returns the playout item covering the given moment for a
// channel, filler included
func (s *Service) ActiveItem(ctx context.Context, channelID uuid.UUID, at time.Time) (*models.PlayoutItem, error) {
	playout, err := s.repos.Playouts.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	item, err := s.repos.Playouts.GetItemAt(ctx, playout.ID, at)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNoActiveItem
		}
		return nil, err
	}
	item.MediaItem, err = s.repos.MediaItems.GetByID(ctx, item.MediaItemID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	return item, nil
}

// Window returns the raw ordered playout items overlapping [from, to)
func (s *Service) Window(ctx context.Context, channelID uuid.UUID, from, to time.Time) ([]*models.PlayoutItem, error) {
	playout, err := s.repos.Playouts.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return s.repos.Playouts.GetItemsInWindow(ctx, playout.ID, from, to)
}

// Entries returns the guide rows for [from, to). Filler and
// guide-hidden items do not produce rows; entries sharing a guide
// group are merged into one row spanning the group's guide window.
func (s *Service) Entries(ctx context.Context, channelID uuid.UUID, from, to time.Time) ([]Entry, error) {
	items, err := s.Window(ctx, channelID, from, to)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	var current *Entry
	for _, item := range items {
		if item.FillerKind != models.FillerKindNone {
			continue
		}

		start, finish := item.Start, item.Finish
		if item.GuideStart != nil {
			start = *item.GuideStart
		}
		if item.GuideFinish != nil {
			finish = *item.GuideFinish
		}

		if current != nil && current.GuideGroup == item.GuideGroup {
			if finish.After(current.Finish) {
				current.Finish = finish
			}
			continue
		}

		entry := Entry{
			Start:       start,
			Finish:      finish,
			MediaItemID: item.MediaItemID,
			GuideGroup:  item.GuideGroup,
		}
		if item.CustomTitle != nil {
			entry.Title = *item.CustomTitle
		}
		entries = append(entries, entry)
		current = &entries[len(entries)-1]
	}

	if err := s.fillTitles(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// fillTitles resolves media metadata for entries without a custom title
func (s *Service) fillTitles(ctx context.Context, entries []Entry) error {
	need := make(map[uuid.UUID]bool)
	for i := range entries {
		need[entries[i].MediaItemID] = true
	}
	if len(need) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	items, err := s.repos.MediaItems.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*models.MediaItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	for i := range entries {
		item, ok := byID[entries[i].MediaItemID]
		if !ok {
			continue
		}
		if entries[i].Title == "" {
			entries[i].Title = item.Title
		}
		entries[i].ShowName = item.ShowName
		entries[i].Season = item.Season
		entries[i].Episode = item.Episode
	}
	return nil
}

// Playlist renders the playout items in [from, to) as an HLS media
// playlist, one segment per item with its trimmed duration and
// program date-time. Discontinuities mark breaks where items are not
// contiguous.
func (s *Service) Playlist(ctx context.Context, channelID uuid.UUID, from, to time.Time) ([]byte, error) {
	items, err := s.Window(ctx, channelID, from, to)
	if err != nil {
		return nil, err
	}

	capacity := uint(len(items))
	if capacity == 0 {
		capacity = 1
	}
	playlist, err := m3u8.NewMediaPlaylist(0, capacity)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MediaItemID)
	}
	media, err := s.repos.MediaItems.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	paths := make(map[uuid.UUID]string, len(media))
	for _, m := range media {
		paths[m.ID] = m.FilePath
	}

	var maxDuration float64
	var prevFinish time.Time
	for i, item := range items {
		duration := item.Finish.Sub(item.Start).Seconds()
		if duration <= 0 {
			continue
		}
		if duration > maxDuration {
			maxDuration = duration
		}
		segment := &m3u8.MediaSegment{
			SeqId:           uint64(i),
			URI:             paths[item.MediaItemID],
			Duration:        duration,
			ProgramDateTime: item.Start,
			Discontinuity:   i > 0 && item.Start.After(prevFinish),
		}
		if err := playlist.AppendSegment(segment); err != nil {
			return nil, err
		}
		prevFinish = item.Finish
	}

	playlist.TargetDuration = uint(maxDuration) + 1
	playlist.Close()
	return playlist.Encode().Bytes(), nil
}
