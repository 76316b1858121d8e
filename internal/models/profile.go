package models

// Profile is the per-hash record stored as profile.json inside the
// profile directory. The hash itself is the directory name, not a field,
// so a repeated create cannot rewrite the identity it is keyed by.
type Profile struct {
	Name        string         `json:"name"`
	Created     int64          `json:"created"`
	Fingerprint map[string]any `json:"fingerprint"`
}
