// Package room owns room identity, subscriber sets, per-client delivery
// queues, and the per-room/per-language ordering watermarks used to reject
// stale transcription and translation results.
package room

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"live-caption-room-service/internal/models"
	"live-caption-room-service/internal/observability/logging"
	"live-caption-room-service/internal/observability/metrics"
)

// Errors surfaced to callers.
var (
	// ErrNotFound is returned when an operation names an unknown room.
	ErrNotFound = errors.New("room not found")

	// ErrNoFeeds is returned when a subscription opts out of the
	// transcription feed without selecting any translation language.
	// Such a subscriber would hold a queue nothing ever writes to.
	ErrNoFeeds = errors.New("subscription selects no feeds")
)

// Options configures a Registry.
type Options struct {
	// QueueCapacity bounds each subscriber queue. Enqueue never blocks;
	// messages to a full queue are dropped and counted.
	QueueCapacity int

	// RoomTTL is how long a room with no subscribers and no accepted
	// transcription may live before the sweeper evicts it. Zero disables
	// eviction.
	RoomTTL time.Duration

	// SweepInterval is how often the eviction sweeper runs.
	SweepInterval time.Duration
}

// DefaultOptions returns the options used by the service when the
// configuration does not override them.
func DefaultOptions() Options {
	return Options{
		QueueCapacity: 256,
		RoomTTL:       time.Hour,
		SweepInterval: time.Minute,
	}
}

// languageFeed tracks one target language within a room: its ordering
// watermark and the subscribers receiving it.
type languageFeed struct {
	watermark time.Time
	subs      map[string]struct{}
}

// Room holds all mutable state for one fan-out unit. All fields are guarded
// by mu, which is held only for in-memory updates, never across a backend
// call.
type Room struct {
	mu sync.Mutex

	id        string
	createdAt time.Time

	utteranceID int64
	// watermark is the receive timestamp of the most recent accepted
	// transcription result.
	watermark time.Time

	transcriptionSubs map[string]struct{}
	languages         map[string]*languageFeed
	queues            map[string]chan models.Message
}

// Registry is the explicitly-owned collection of live rooms.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	opts    Options
	metrics *metrics.Metrics
	log     zerolog.Logger

	stopSweep chan struct{}
	sweepDone chan struct{}
}

// NewRegistry constructs a Registry and starts its eviction sweeper.
func NewRegistry(m *metrics.Metrics, opts Options) *Registry {
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultOptions().QueueCapacity
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultOptions().SweepInterval
	}

	r := &Registry{
		rooms:     make(map[string]*Room),
		opts:      opts,
		metrics:   m,
		log:       logging.WithComponent("room.registry"),
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}

	go r.sweepLoop()
	return r
}

// Close stops the eviction sweeper. Rooms and queues are left in place for
// any still-running delivery channels to drain.
func (r *Registry) Close() {
	close(r.stopSweep)
	<-r.sweepDone
}

// CreateRoom generates a 4-digit zero-padded room id, retrying on collision
// against the live room set, and initializes an empty room.
func (r *Registry) CreateRoom() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := fmt.Sprintf("%04d", rand.IntN(10000))
	for _, taken := r.rooms[id]; taken; _, taken = r.rooms[id] {
		id = fmt.Sprintf("%04d", rand.IntN(10000))
	}

	r.rooms[id] = &Room{
		id:                id,
		createdAt:         time.Now(),
		transcriptionSubs: make(map[string]struct{}),
		languages:         make(map[string]*languageFeed),
		queues:            make(map[string]chan models.Message),
	}

	r.metrics.RoomsCreated.Inc()
	r.metrics.RoomsActive.Set(float64(len(r.rooms)))
	r.log.Info().Str("roomId", id).Msg("room created")

	return id
}

// Exists reports whether roomID names a live room.
func (r *Registry) Exists(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// Rooms returns a snapshot of the live room ids.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) room(roomID string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[roomID]
	return rm, ok
}

// Subscribe registers clientID in roomID and returns the client's outbound
// queue. The client joins the transcription feed when wantTranscription is
// set and each listed language feed, creating feeds as needed. Subscribing
// an already-subscribed client to more languages reuses its queue.
func (r *Registry) Subscribe(roomID, clientID string, languages []string, wantTranscription bool) (<-chan models.Message, error) {
	if !wantTranscription && len(languages) == 0 {
		return nil, ErrNoFeeds
	}

	rm, ok := r.room(roomID)
	if !ok {
		return nil, fmt.Errorf("subscribe %q: %w", roomID, ErrNotFound)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if wantTranscription {
		rm.transcriptionSubs[clientID] = struct{}{}
	}
	for _, lang := range languages {
		feed, ok := rm.languages[lang]
		if !ok {
			feed = &languageFeed{subs: make(map[string]struct{})}
			rm.languages[lang] = feed
		}
		feed.subs[clientID] = struct{}{}
	}

	q, ok := rm.queues[clientID]
	if !ok {
		q = make(chan models.Message, r.opts.QueueCapacity)
		rm.queues[clientID] = q
		r.metrics.SubscribersActive.Inc()
	}

	return q, nil
}

// Unsubscribe removes clientID from the transcription set and every
// language set, then closes and deletes its queue. Memberships that are
// already absent are ignored; unknown rooms are a no-op.
func (r *Registry) Unsubscribe(roomID, clientID string) {
	rm, ok := r.room(roomID)
	if !ok {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	delete(rm.transcriptionSubs, clientID)
	for lang, feed := range rm.languages {
		delete(feed.subs, clientID)
		if len(feed.subs) == 0 {
			delete(rm.languages, lang)
		}
	}

	if q, ok := rm.queues[clientID]; ok {
		delete(rm.queues, clientID)
		close(q)
		r.metrics.SubscribersActive.Dec()
	}
}

// SubscribedLanguages returns a fresh snapshot of languages with at least
// one subscriber, so subscription changes take effect on the next chunk.
func (r *Registry) SubscribedLanguages(roomID string) []string {
	rm, ok := r.room(roomID)
	if !ok {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	langs := make([]string, 0, len(rm.languages))
	for lang := range rm.languages {
		langs = append(langs, lang)
	}
	return langs
}

// UtteranceID returns the room's current utterance counter.
func (r *Registry) UtteranceID(roomID string) int64 {
	rm, ok := r.room(roomID)
	if !ok {
		return 0
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.utteranceID
}

// AdvanceUtterance increments the room's utterance counter. Called exactly
// once per accepted committed transcription.
func (r *Registry) AdvanceUtterance(roomID string) {
	rm, ok := r.room(roomID)
	if !ok {
		return
	}

	rm.mu.Lock()
	rm.utteranceID++
	rm.mu.Unlock()

	r.metrics.UtterancesTotal.Inc()
}

// GateTranscription applies the room-scoped staleness gate. A result is
// rejected when it is not an utterance boundary and its receive timestamp
// precedes the watermark; otherwise the watermark advances to receivedAt.
// Utterance-boundary results are always accepted: finality is never dropped.
func (r *Registry) GateTranscription(roomID string, receivedAt time.Time, isUtterance bool) bool {
	rm, ok := r.room(roomID)
	if !ok {
		return false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if !isUtterance && receivedAt.Before(rm.watermark) {
		r.metrics.ResultsStale.WithLabelValues(models.KindTranscription).Inc()
		return false
	}
	rm.watermark = receivedAt
	r.metrics.ResultsAccepted.WithLabelValues(models.KindTranscription).Inc()
	return true
}

// GateTranslation applies the (room, language)-scoped staleness gate with
// the same acceptance rule as GateTranscription.
func (r *Registry) GateTranslation(roomID, language string, receivedAt time.Time, isUtterance bool) bool {
	rm, ok := r.room(roomID)
	if !ok {
		return false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	feed, ok := rm.languages[language]
	if !ok {
		// All subscribers left between the snapshot and this result.
		return false
	}

	if !isUtterance && receivedAt.Before(feed.watermark) {
		r.metrics.ResultsStale.WithLabelValues(models.KindTranslation).Inc()
		return false
	}
	feed.watermark = receivedAt
	r.metrics.ResultsAccepted.WithLabelValues(models.KindTranslation).Inc()
	return true
}

// PushTranscription enqueues msg onto every transcription subscriber's
// queue without blocking.
func (r *Registry) PushTranscription(roomID string, msg models.Message) {
	rm, ok := r.room(roomID)
	if !ok {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	for clientID := range rm.transcriptionSubs {
		r.enqueue(rm, clientID, msg)
	}
}

// PushTranslation enqueues msg onto every queue subscribed to language.
// No-op when the language has no subscribers.
func (r *Registry) PushTranslation(roomID, language string, msg models.Message) {
	rm, ok := r.room(roomID)
	if !ok {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	feed, ok := rm.languages[language]
	if !ok {
		return
	}
	for clientID := range feed.subs {
		r.enqueue(rm, clientID, msg)
	}
}

// enqueue delivers msg to one subscriber queue, dropping on overflow so a
// slow client never stalls the room. Caller holds rm.mu.
func (r *Registry) enqueue(rm *Room, clientID string, msg models.Message) {
	q, ok := rm.queues[clientID]
	if !ok {
		return
	}
	select {
	case q <- msg:
	default:
		r.metrics.QueueDropped.Inc()
		r.log.Warn().
			Str("roomId", rm.id).
			Str("clientId", clientID).
			Str("kind", msg.Kind()).
			Msg("subscriber queue full, message dropped")
	}
}

// sweepLoop evicts rooms that have had no subscribers and no accepted
// transcription for longer than the TTL.
func (r *Registry) sweepLoop() {
	defer close(r.sweepDone)

	if r.opts.RoomTTL <= 0 {
		<-r.stopSweep
		return
	}

	ticker := time.NewTicker(r.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopSweep:
			return
		case now := <-ticker.C:
			r.evictIdle(now)
		}
	}
}

func (r *Registry) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rm := range r.rooms {
		rm.mu.Lock()
		lastActivity := rm.createdAt
		if rm.watermark.After(lastActivity) {
			lastActivity = rm.watermark
		}
		idle := len(rm.queues) == 0 && now.Sub(lastActivity) > r.opts.RoomTTL
		rm.mu.Unlock()

		if idle {
			delete(r.rooms, id)
			r.metrics.RoomsEvicted.Inc()
			r.log.Info().Str("roomId", id).Msg("idle room evicted")
		}
	}
	r.metrics.RoomsActive.Set(float64(len(r.rooms)))
}
