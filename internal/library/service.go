// Package library resolves content references into concrete member
// lists. It is the boundary between the playout engine and the media
// library: every enumerator call re-resolves membership here, so a
// library mutation mid-build is observed rather than raced.
package library

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/rotation"
)

// Resolution is the resolved membership of a content reference along
// with a change-version token. The token covers member identity and
// order; stale enumerator cursors and playout items are detected by
// comparing tokens.
type Resolution struct {
	Members []rotation.Member
	Version string
}

// Service resolves content references against the library
type Service struct {
	repos *db.Repositories
}

// NewService creates a new library service instance
func NewService(repos *db.Repositories) *Service {
	return &Service{repos: repos}
}

// Resolve returns the ordered member list and version token for a
// content reference. A fake reference resolves to zero members; the
// caller decides whether that is a gap or intentional dead air.
func (s *Service) Resolve(ctx context.Context, ref models.ContentRef) (*Resolution, error) {
	var members []rotation.Member
	var err error

	switch ref.Kind {
	case models.ContentKindMediaItem:
		members, err = s.resolveMediaItem(ctx, ref.TargetID)
	case models.ContentKindCollection:
		members, err = s.resolveCollection(ctx, ref.TargetID, "")
	case models.ContentKindSmartCollection:
		members, err = s.resolveSmart(ctx, ref.TargetID)
	case models.ContentKindMultiCollection:
		members, err = s.resolveMulti(ctx, ref.TargetID)
	case models.ContentKindPlaylist:
		members, err = s.resolvePlaylist(ctx, ref.TargetID)
	case models.ContentKindFillGroup:
		members, err = s.resolveFillGroup(ctx, ref.TargetID)
	case models.ContentKindFake:
		members = nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", ref.Kind)
	}
	if err != nil {
		return nil, err
	}

	return &Resolution{
		Members: members,
		Version: versionToken(members),
	}, nil
}

func (s *Service) resolveMediaItem(ctx context.Context, id uuid.UUID) ([]rotation.Member, error) {
	item, err := s.repos.MediaItems.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve media item: %w", err)
	}
	return []rotation.Member{{MediaItem: item}}, nil
}

func (s *Service) resolveCollection(ctx context.Context, id uuid.UUID, groupKey string) ([]rotation.Member, error) {
	collection, err := s.repos.Collections.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve collection: %w", err)
	}

	rows, err := s.repos.Collections.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.MediaItemID)
	}
	items, err := s.repos.MediaItems.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.MediaItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	members := make([]rotation.Member, 0, len(rows))
	for _, row := range rows {
		if item, ok := byID[row.MediaItemID]; ok {
			members = append(members, rotation.Member{MediaItem: item, GroupKey: groupKey})
		}
	}

	if !collection.UseCustomOrder {
		sortChronological(members)
	}
	return members, nil
}

func (s *Service) resolveSmart(ctx context.Context, id uuid.UUID) ([]rotation.Member, error) {
	smart, err := s.repos.Collections.GetSmartByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve smart collection: %w", err)
	}

	items, err := s.repos.MediaItems.Search(ctx, "%"+smart.Query+"%")
	if err != nil {
		return nil, err
	}
	members := make([]rotation.Member, 0, len(items))
	for _, item := range items {
		members = append(members, rotation.Member{MediaItem: item})
	}
	return members, nil
}

func (s *Service) resolveMulti(ctx context.Context, id uuid.UUID) ([]rotation.Member, error) {
	links, err := s.repos.Collections.GetMultiItems(ctx, id)
	if err != nil {
		return nil, err
	}

	var members []rotation.Member
	for _, link := range links {
		groupKey := ""
		if link.ScheduleAsGroup {
			groupKey = link.CollectionID.String()
		}
		sub, err := s.resolveCollection(ctx, link.CollectionID, groupKey)
		if err != nil {
			return nil, err
		}
		members = append(members, sub...)
	}
	return members, nil
}

func (s *Service) resolvePlaylist(ctx context.Context, id uuid.UUID) ([]rotation.Member, error) {
	rows, err := s.repos.Collections.GetPlaylistItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.membersForRows(ctx, rowIDs(rows))
}

func (s *Service) resolveFillGroup(ctx context.Context, id uuid.UUID) ([]rotation.Member, error) {
	rows, err := s.repos.Collections.GetFillGroupItems(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.MediaItemID)
	}
	return s.membersForRows(ctx, ids)
}

// membersForRows loads media items preserving the given id order
func (s *Service) membersForRows(ctx context.Context, ids []uuid.UUID) ([]rotation.Member, error) {
	items, err := s.repos.MediaItems.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.MediaItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	members := make([]rotation.Member, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			members = append(members, rotation.Member{MediaItem: item})
		}
	}
	return members, nil
}

func rowIDs(rows []*models.PlaylistItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.MediaItemID)
	}
	return ids
}

// sortChronological orders members by release date, then season and
// episode, then title, matching how episodic content airs
func sortChronological(members []rotation.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i].MediaItem, members[j].MediaItem
		if a.ReleasedAt != nil && b.ReleasedAt != nil && !a.ReleasedAt.Equal(*b.ReleasedAt) {
			return a.ReleasedAt.Before(*b.ReleasedAt)
		}
		if sa, sb := intOrMax(a.Season), intOrMax(b.Season); sa != sb {
			return sa < sb
		}
		if ea, eb := intOrMax(a.Episode), intOrMax(b.Episode); ea != eb {
			return ea < eb
		}
		return a.Title < b.Title
	})
}

func intOrMax(v *int) int {
	if v == nil {
		return int(^uint(0) >> 1)
	}
	return *v
}

// versionToken hashes member identity and order into a short change tag
func versionToken(members []rotation.Member) string {
	h := fnv.New64a()
	for _, m := range members {
		_, _ = h.Write([]byte(m.MediaItem.ID.String()))
		_, _ = h.Write([]byte{'|'})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
