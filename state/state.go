package state

import "github.com/hupe1980/jeeves/core"

// EnsureCommunity performs the lazy-create step as one read-modify-write
// round trip: it loads the snapshot, creates the community when absent and
// saves only if something was created. The loaded snapshot is returned so
// callers can mutate and save it again.
func EnsureCommunity(store core.StateStore, guildID, channelID string, d core.Defaults) (*core.Snapshot, *core.Community, error) {
	snap := store.Load()
	c, created := snap.EnsureCommunity(guildID, channelID, d)
	if created {
		if err := store.Save(snap); err != nil {
			return snap, c, err
		}
	}
	return snap, c, nil
}
