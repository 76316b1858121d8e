package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"anonchat/internal/models"
	"anonchat/internal/storage"
	"anonchat/internal/structures"
)

// hashPattern bounds what the server accepts as an identity token.
// The hash doubles as a directory name, so anything outside a short
// alphanumeric token is rejected before it touches the filesystem.
var hashPattern = regexp.MustCompile(`^[a-zA-Z0-9]{1,64}$`)

type ChatServiceInterface interface {
	CreateProfile(hash string, data map[string]any) (*models.Profile, error)
	GetProfile(hash string) (*models.Profile, error)
	UpdateName(hash, name string) (*models.Profile, error)
	ListMessages(page int) (*models.Listing, error)
	SendMessage(addr, hash, name, text string) (*models.Message, int, error)
	EditMessage(hash, messageID, text string) (*models.Message, int, error)
	DeleteMessage(hash, messageID string) (int, error)
	Pages() int
	Profiles() int
}

type ChatService struct {
	maxNameLength int
	maxTextLength int
	profiles      storage.ProfileStoreInterface
	messages      storage.MessageStoreInterface
	limiter       storage.RateLimiterInterface
}

func NewChatService(conf *structures.Config, profiles storage.ProfileStoreInterface, messages storage.MessageStoreInterface, limiter storage.RateLimiterInterface) ChatServiceInterface {
	return &ChatService{
		maxNameLength: conf.Chat.MaxNameLength,
		maxTextLength: conf.Chat.MaxTextLength,
		profiles:      profiles,
		messages:      messages,
		limiter:       limiter,
	}
}

func (cs *ChatService) validHash(hash string) bool {
	return hashPattern.MatchString(hash)
}

// validLength trims s and checks its Unicode character count against
// [1, max]. Lengths are rune counts, not bytes: a 20-character name in
// any script is legal.
func validLength(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return s, n >= 1 && n <= max
}

// mintID composes a globally unique message id without coordination:
// author hash + send second + 4 random bytes.
func mintID(hash string) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%d_%s", hash, time.Now().Unix(), hex.EncodeToString(suffix)), nil
}

func (cs *ChatService) CreateProfile(hash string, data map[string]any) (*models.Profile, error) {
	if !cs.validHash(hash) || data == nil {
		return nil, ErrInvalidFingerprint
	}
	return cs.profiles.CreateOrGet(hash, data)
}

func (cs *ChatService) GetProfile(hash string) (*models.Profile, error) {
	if !cs.validHash(hash) {
		return nil, ErrInvalidHash
	}
	return cs.profiles.Get(hash)
}

func (cs *ChatService) UpdateName(hash, name string) (*models.Profile, error) {
	if !cs.validHash(hash) {
		return nil, ErrInvalidHash
	}
	name, ok := validLength(name, cs.maxNameLength)
	if !ok {
		return nil, ErrInvalidName
	}
	return cs.profiles.UpdateName(hash, html.EscapeString(name))
}

func (cs *ChatService) ListMessages(page int) (*models.Listing, error) {
	if page < 1 {
		page = 1
	}
	messages, hasMore, err := cs.messages.ListPage(page)
	if err != nil {
		return nil, err
	}
	return &models.Listing{
		Messages: messages,
		Page:     page,
		HasMore:  hasMore,
	}, nil
}

// SendMessage validates, consults the cooldown gate and appends. The
// author name is snapshotted into the message: renames never rewrite
// history. Returns the message and the page it landed on.
func (cs *ChatService) SendMessage(addr, hash, name, text string) (*models.Message, int, error) {
	name, ok := validLength(name, cs.maxNameLength)
	if !ok {
		return nil, 0, ErrInvalidName
	}
	text, ok = validLength(text, cs.maxTextLength)
	if !ok {
		return nil, 0, ErrInvalidText
	}
	if !cs.validHash(hash) {
		return nil, 0, ErrInvalidHash
	}

	if err := cs.limiter.CheckAndMark(addr); err != nil {
		return nil, 0, err
	}

	id, err := mintID(hash)
	if err != nil {
		return nil, 0, err
	}

	msg := &models.Message{
		ID:        id,
		Hash:      hash,
		Name:      html.EscapeString(name),
		Text:      html.EscapeString(text),
		Timestamp: time.Now().Unix(),
		Edited:    false,
	}

	page, err := cs.messages.Append(msg)
	if err != nil {
		return nil, 0, err
	}
	return msg, page, nil
}

func (cs *ChatService) EditMessage(hash, messageID, text string) (*models.Message, int, error) {
	if !cs.validHash(hash) {
		return nil, 0, ErrInvalidHash
	}
	if messageID == "" {
		return nil, 0, ErrInvalidMessageID
	}
	text, ok := validLength(text, cs.maxTextLength)
	if !ok {
		return nil, 0, ErrInvalidText
	}
	return cs.messages.Edit(messageID, hash, html.EscapeString(text))
}

func (cs *ChatService) DeleteMessage(hash, messageID string) (int, error) {
	if !cs.validHash(hash) {
		return 0, ErrInvalidHash
	}
	if messageID == "" {
		return 0, ErrInvalidMessageID
	}
	return cs.messages.Delete(messageID, hash)
}

func (cs *ChatService) Pages() int {
	return cs.messages.PageCount()
}

func (cs *ChatService) Profiles() int {
	return cs.profiles.Count()
}
