package models

// Message is a single chat entry as persisted inside a page file.
// ID is minted once at send time and never changes; Hash is the author's
// fingerprint hash and doubles as the ownership token for edit/delete.
// Name and Text are stored HTML-escaped.
type Message struct {
	ID        string `json:"id"`
	Hash      string `json:"hash"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Edited    bool   `json:"edited"`
}

// Listing is the response shape of a page read. Messages are ordered
// newest-first; HasMore reports whether the next page file exists.
type Listing struct {
	Messages []*Message `json:"messages"`
	Page     int        `json:"page"`
	HasMore  bool       `json:"has_more"`
}
