package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/models"
	"github.com/bonfireapp/bonfire-backend/pkg/geo"
	"github.com/google/uuid"
)

// LocationSampler debounces raw device position reports: a sample passes when
// the device moved at least minDistance metres since the last accepted sample
// or maxInterval elapsed, whichever comes first. Balances discovery latency
// against battery and query load.
type LocationSampler struct {
	mu          sync.Mutex
	minDistance float64
	maxInterval time.Duration
	last        map[uuid.UUID]models.LocationSample
}

func NewLocationSampler(minDistance float64, maxInterval time.Duration) *LocationSampler {
	return &LocationSampler{
		minDistance: minDistance,
		maxInterval: maxInterval,
		last:        make(map[uuid.UUID]models.LocationSample),
	}
}

// Accept reports whether this sample should trigger the discovery side
// effects. The first sample from a device always passes.
func (s *LocationSampler) Accept(userID uuid.UUID, sample models.LocationSample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, seen := s.last[userID]
	if seen {
		moved := geo.DistanceMeters(prev.Latitude, prev.Longitude, sample.Latitude, sample.Longitude)
		elapsed := sample.Timestamp.Sub(prev.Timestamp)
		if moved < s.minDistance && elapsed < s.maxInterval {
			return false
		}
	}
	s.last[userID] = sample
	return true
}

// Reset forgets a device's last accepted sample.
func (s *LocationSampler) Reset(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, userID)
}

// DiscoveryNotifier remembers which bonfires have already been surfaced to
// each user so a stationary user next to a long-lived bonfire is notified
// exactly once. Process lifetime only; a restart re-notifies.
type DiscoveryNotifier struct {
	mu   sync.Mutex
	seen map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewDiscoveryNotifier() *DiscoveryNotifier {
	return &DiscoveryNotifier{seen: make(map[uuid.UUID]map[uuid.UUID]struct{})}
}

// FirstSighting records the (user, bonfire) pair and reports whether this is
// the first time the pair was seen.
func (n *DiscoveryNotifier) FirstSighting(userID, bonfireID uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	set, ok := n.seen[userID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		n.seen[userID] = set
	}
	if _, already := set[bonfireID]; already {
		return false
	}
	set[bonfireID] = struct{}{}
	return true
}

// Reset is the explicit teardown for one user's notified set.
func (n *DiscoveryNotifier) Reset(userID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.seen, userID)
}

// Discovery wires the sampler, the nearby query, and the notifier together
// for the location-report endpoint.
type Discovery struct {
	Sampler      *LocationSampler
	Notifier     *DiscoveryNotifier
	SearchRadius float64
}

var defaultDiscovery *Discovery

// InitDiscovery builds the process-wide discovery pipeline. Called once from
// main before the router starts.
func InitDiscovery(minDistance float64, maxInterval time.Duration, searchRadius float64) {
	defaultDiscovery = &Discovery{
		Sampler:      NewLocationSampler(minDistance, maxInterval),
		Notifier:     NewDiscoveryNotifier(),
		SearchRadius: searchRadius,
	}
}

// DefaultDiscovery returns the pipeline built by InitDiscovery.
func DefaultDiscovery() *Discovery {
	return defaultDiscovery
}

// HandleSample runs one device position report through the pipeline. When the
// sample is accepted, two side effects run concurrently: the owner's active
// bonfire follows the owner's movement, and new nearby bonfires produce
// one-shot discovery events on the user's realtime channel.
func (d *Discovery) HandleSample(userID uuid.UUID, sample models.LocationSample) bool {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}
	if !d.Sampler.Accept(userID, sample) {
		return false
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := UpdateCreatorBonfireLocation(ctx, userID, sample.Latitude, sample.Longitude); err != nil {
			log.Printf("discovery: failed to move creator bonfire for %s: %v", userID, err)
		}
	}()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		nearby, err := FindNearby(ctx, sample.Latitude, sample.Longitude, d.SearchRadius)
		if err != nil {
			log.Printf("discovery: nearby query failed for %s: %v", userID, err)
			return
		}
		for i := range nearby {
			nb := nearby[i]
			if !d.Notifier.FirstSighting(userID, nb.ID) {
				continue
			}
			evt := ChatEvent{
				Type:      EventTypeDiscovery,
				BonfireID: nb.ID.String(),
				UserID:    userID.String(),
				Bonfire:   &nb,
				Timestamp: time.Now().UTC(),
			}
			if err := PublishUserEvent(ctx, userID.String(), evt); err != nil {
				log.Printf("discovery: failed to publish discovery event: %v", err)
			}
		}
	}()

	return true
}
