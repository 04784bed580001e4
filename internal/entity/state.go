package entity

// State is the persisted tracker state: every current snapshot and the
// offset of the last consumed balance message.
type State struct {
	Snapshots map[string]Snapshot
	Offset    int64
}
