package store

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/techyouandme/TempTelegram/internal/metrics"
)

// Reaper periodically sweeps the directory for stale and abandoned rooms.
// It owns nothing beyond its ticker; all eviction logic lives in Cleanup.
type Reaper struct {
	store    *Store
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewReaper(s *Store, interval time.Duration) *Reaper {
	return &Reaper{
		store:    s,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (r *Reaper) Start() {
	go r.run()
}

func (r *Reaper) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			removed := r.store.Cleanup()
			metrics.ActiveRooms.Set(float64(r.store.RoomCount()))
			if removed > 0 {
				metrics.RoomsReapedTotal.Add(float64(removed))
				log.Info().Int("removed", removed).Msg("cleaned up inactive rooms")
			}
		}
	}
}

// Stop ends the sweep loop and waits for it to exit. Safe to call twice.
func (r *Reaper) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	<-r.done
}
