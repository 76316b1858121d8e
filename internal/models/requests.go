package models

// Request DTOs for the action-dispatched API. Every struct carries the
// optional "action" field so a body can be decoded with unknown fields
// rejected: a payload that does not match the branch shape exactly is a
// 400, never a partially-filled record.

type CreateProfileRequest struct {
	Action string         `json:"action,omitempty"`
	Hash   string         `json:"hash"`
	Data   map[string]any `json:"data"`
}

type GetProfileRequest struct {
	Action string `json:"action,omitempty"`
	Hash   string `json:"hash"`
}

type UpdateNameRequest struct {
	Action string `json:"action,omitempty"`
	Hash   string `json:"hash"`
	Name   string `json:"name"`
}

type SendMessageRequest struct {
	Action string `json:"action,omitempty"`
	Hash   string `json:"hash"`
	Name   string `json:"name"`
	Text   string `json:"text"`
}

type EditMessageRequest struct {
	Action    string `json:"action,omitempty"`
	Hash      string `json:"hash"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

type DeleteMessageRequest struct {
	Action    string `json:"action,omitempty"`
	Hash      string `json:"hash"`
	MessageID string `json:"message_id"`
}
