package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pefman/cosmic-race/internal/game"
)

// SessionInfo is the debug view of a connected session.
type SessionInfo struct {
	ID        string         `json:"id"`
	Remote    string         `json:"remote"`
	Since     int64          `json:"since"` // unix seconds
	Started   bool           `json:"started"`
	Phase     string         `json:"phase,omitempty"`
	Turn      int            `json:"turn,omitempty"`
	Positions map[string]int `json:"positions,omitempty"`
	Winner    string         `json:"winner,omitempty"`
}

// Registry tracks live sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List describes every session, oldest first. Sessions whose controller does
// not answer in time are listed without race details.
func (r *Registry) List(ctx context.Context) []SessionInfo {
	r.mu.RLock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Since.Before(list[j].Since) })
	out := make([]SessionInfo, 0, len(list))
	for _, s := range list {
		info := SessionInfo{ID: s.ID, Remote: s.Remote, Since: s.Since.Unix(), Started: s.started()}
		if info.Started {
			sctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			snap, err := s.ctrl.Snapshot(sctx)
			cancel()
			if err == nil {
				info.Phase = snap.Phase.String()
				info.Turn = snap.Turn
				info.Positions = map[string]int{}
				for p, sq := range snap.Positions {
					info.Positions[p.String()] = sq
				}
				if snap.Winner != game.NoPlayer {
					info.Winner = snap.Winner.String()
				}
			}
		}
		out = append(out, info)
	}
	return out
}
