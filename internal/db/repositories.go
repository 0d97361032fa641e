package db

// Repositories provides access to all database repositories
type Repositories struct {
	Channels    *ChannelRepository
	MediaItems  *MediaItemRepository
	Collections *CollectionRepository
	Schedules   *ScheduleRepository
	Blocks      *BlockRepository
	Decos       *DecoRepository
	Playouts    *PlayoutRepository
	History     *HistoryRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Channels:    NewChannelRepository(db),
		MediaItems:  NewMediaItemRepository(db),
		Collections: NewCollectionRepository(db),
		Schedules:   NewScheduleRepository(db),
		Blocks:      NewBlockRepository(db),
		Decos:       NewDecoRepository(db),
		Playouts:    NewPlayoutRepository(db),
		History:     NewHistoryRepository(db),
	}
}
