package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"slide-deck-platform/internal/logger"
	"slide-deck-platform/models"
)

// catalogLister is the slice of the catalog store the index depends on
type catalogLister interface {
	List(ctx context.Context) ([]*models.Presentation, error)
	FindByTopic(ctx context.Context, pattern string) ([]*models.Presentation, error)
}

// Index holds the derived lookup structures over the catalog: topic to
// presentation ids, and per-user seen tracking. It is a pure cache, never
// authoritative, and fully reconstructable from the store via Rebuild. Seen
// tracking lives for the process lifetime only and is not persisted.
type Index struct {
	mu    sync.RWMutex
	store catalogLister

	topicIDs   map[string][]string // lowercased topic -> presentation ids
	topicNames map[string]string   // lowercased topic -> display label
	seen       map[string]map[string]bool

	scheduler *gocron.Scheduler
}

func NewIndex(store catalogLister) *Index {
	return &Index{
		store:      store,
		topicIDs:   make(map[string][]string),
		topicNames: make(map[string]string),
		seen:       make(map[string]map[string]bool),
	}
}

// Rebuild clears the topic index and reloads it from the store. Seen
// tracking survives a rebuild; it is not derived from catalog contents.
func (idx *Index) Rebuild(ctx context.Context) error {
	presentations, err := idx.store.List(ctx)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.topicIDs = make(map[string][]string)
	idx.topicNames = make(map[string]string)
	for _, p := range presentations {
		idx.addLocked(p)
	}

	logger.Info("Derived index rebuilt", "presentations", len(presentations), "topics", len(idx.topicIDs))
	return nil
}

// AddPresentation indexes a newly committed record. Callers invoke this only
// after the store write has been verified.
func (idx *Index) AddPresentation(p *models.Presentation) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.addLocked(p)
}

// ApplyUpdate re-indexes a record after a metadata update
func (idx *Index) ApplyUpdate(p *models.Presentation) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(p.ID)
	idx.addLocked(p)
}

// RemovePresentation drops a soft-deleted record from the topic index
func (idx *Index) RemovePresentation(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
}

func (idx *Index) addLocked(p *models.Presentation) {
	for _, topic := range p.Topics {
		key := strings.ToLower(strings.TrimSpace(topic))
		if key == "" {
			continue
		}
		if !containsString(idx.topicIDs[key], p.ID) {
			idx.topicIDs[key] = append(idx.topicIDs[key], p.ID)
		}
		if _, ok := idx.topicNames[key]; !ok {
			idx.topicNames[key] = strings.TrimSpace(topic)
		}
	}
}

func (idx *Index) removeLocked(id string) {
	for key, ids := range idx.topicIDs {
		filtered := ids[:0]
		for _, existing := range ids {
			if existing != id {
				filtered = append(filtered, existing)
			}
		}
		if len(filtered) == 0 {
			delete(idx.topicIDs, key)
			delete(idx.topicNames, key)
		} else {
			idx.topicIDs[key] = filtered
		}
	}
}

// Topics returns the known topic labels, sorted
func (idx *Index) Topics() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	topics := make([]string, 0, len(idx.topicNames))
	for _, name := range idx.topicNames {
		topics = append(topics, name)
	}
	sort.Strings(topics)
	return topics
}

// IDsByTopic matches the pattern case-insensitively as a substring of any
// indexed topic. On an index miss it falls back to the store, which is
// authoritative; the index may simply be stale.
func (idx *Index) IDsByTopic(ctx context.Context, pattern string) []string {
	needle := strings.ToLower(strings.TrimSpace(pattern))

	idx.mu.RLock()
	var ids []string
	for key, topicIDs := range idx.topicIDs {
		if strings.Contains(key, needle) {
			for _, id := range topicIDs {
				if !containsString(ids, id) {
					ids = append(ids, id)
				}
			}
		}
	}
	idx.mu.RUnlock()

	if len(ids) > 0 {
		return ids
	}

	presentations, err := idx.store.FindByTopic(ctx, pattern)
	if err != nil {
		logger.Warn("Store fallback for topic lookup failed", "topic", pattern, "error", err.Error())
		return nil
	}
	for _, p := range presentations {
		ids = append(ids, p.ID)
	}
	return ids
}

// MarkSeen records that a user has viewed a presentation
func (idx *Index) MarkSeen(userID, presentationID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.seen[userID] == nil {
		idx.seen[userID] = make(map[string]bool)
	}
	idx.seen[userID][presentationID] = true
}

// HasSeen reports whether a user has viewed a presentation this process
func (idx *Index) HasSeen(userID, presentationID string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.seen[userID][presentationID]
}

// UnseenByTopic returns the topic's presentation ids the user has not viewed
func (idx *Index) UnseenByTopic(ctx context.Context, userID, topic string) []string {
	ids := idx.IDsByTopic(ctx, topic)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	unseen := make([]string, 0, len(ids))
	for _, id := range ids {
		if !idx.seen[userID][id] {
			unseen = append(unseen, id)
		}
	}
	return unseen
}

// StartResync schedules periodic full rebuilds so the index converges with
// the store even after tolerated races
func (idx *Index) StartResync(interval time.Duration) error {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	_, err := s.Every(interval).Tag("index-resync").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := idx.Rebuild(ctx); err != nil {
			logger.Error("Scheduled index rebuild failed", "error", err.Error())
		}
	})
	if err != nil {
		return err
	}

	s.StartAsync()
	idx.scheduler = s
	return nil
}

// StopResync stops the background rebuild job
func (idx *Index) StopResync() {
	if idx.scheduler != nil {
		idx.scheduler.Stop()
	}
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
