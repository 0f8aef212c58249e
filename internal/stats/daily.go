package stats

// ResetDaily clears the per-day tallies, leaving the overall history intact.
func (s *Store) ResetDaily() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.daily {
		delete(s.daily, k)
	}
}
