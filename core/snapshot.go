package core

// Snapshot is the whole State Store aggregate: every community keyed by id.
type Snapshot struct {
	Communities map[string]*Community `json:"guilds"`
}

// EmptySnapshot returns a snapshot with no communities.
func EmptySnapshot() *Snapshot {
	return &Snapshot{Communities: map[string]*Community{}}
}

// Community returns the community for id, if present.
func (s *Snapshot) Community(id string) (*Community, bool) {
	c, ok := s.Communities[id]
	return c, ok && c != nil
}

// EnsureCommunity returns the community for id, creating it from d (with
// channelID as its first active channel) when absent. The second return
// value reports whether a community was created.
func (s *Snapshot) EnsureCommunity(id, channelID string, d Defaults) (*Community, bool) {
	if c, ok := s.Community(id); ok {
		return c, false
	}
	if s.Communities == nil {
		s.Communities = map[string]*Community{}
	}
	c := NewCommunity(id, channelID, d)
	s.Communities[id] = c
	return c, true
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	clone := EmptySnapshot()
	for id, c := range s.Communities {
		if c == nil {
			continue
		}
		clone.Communities[id] = c.Clone()
	}
	return clone
}

// StateStore persists the full snapshot as a single blob.
//
// Contract:
//   - Load never fails: a missing or undecodable blob yields EmptySnapshot
//   - Save writes the whole aggregate; there are no field-level updates
//   - no isolation is provided between separate Load/Save round trips
type StateStore interface {
	Load() *Snapshot
	Save(s *Snapshot) error
}
