package models

// Snapshot is the backup envelope: the complete durable state of the
// daemon in one record, with an explicit version field so future format
// changes can migrate on load instead of failing.
type Snapshot struct {
	Version  int                 `json:"version"`
	Pages    map[int][]*Message  `json:"pages"`
	Profiles map[string]*Profile `json:"profiles"`
}

const SnapshotVersion = 1
