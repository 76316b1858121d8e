package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	json "github.com/goccy/go-json"

	"anonchat/internal/models"
	"anonchat/internal/providers"
	"anonchat/internal/structures"
)

// MessageStore keeps the chat log as sequentially numbered page files
// (chat_1.json, chat_2.json, ...) under <dir>/messages. Only the
// highest-numbered page receives appends; earlier pages only ever
// shrink through deletes. All mutations run under one store mutex:
// append can roll a page over, so a per-page lock would still need a
// store-level lock and buys nothing at this file count.
type MessageStore struct {
	mu     sync.RWMutex
	dir    string
	cap    int
	logger providers.Logger
}

type MessageStoreInterface interface {
	ListPage(page int) ([]*models.Message, bool, error)
	Append(msg *models.Message) (int, error)
	Edit(id, hash, text string) (*models.Message, int, error)
	Delete(id, hash string) (int, error)
	PageCount() int
	Export() (map[int][]*models.Message, error)
	Import(pages map[int][]*models.Message) error
}

func NewMessageStore(conf *structures.Config, logger providers.Logger) (MessageStoreInterface, error) {
	dir := filepath.Join(conf.Storage.Dir, "messages")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &MessageStore{
		dir:    dir,
		cap:    conf.Storage.MessagesPerPage,
		logger: logger,
	}, nil
}

func (ms *MessageStore) pagePath(page int) string {
	return filepath.Join(ms.dir, fmt.Sprintf("chat_%d.json", page))
}

// readPage returns the page content in on-disk insertion order.
// A missing page is not an error: ok is false.
func (ms *MessageStore) readPage(page int) ([]*models.Message, bool, error) {
	data, err := os.ReadFile(ms.pagePath(page))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var messages []*models.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, false, fmt.Errorf("page %d corrupt: %w", page, err)
	}
	return messages, true, nil
}

func (ms *MessageStore) writePage(page int, messages []*models.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return writeFileAtomic(ms.pagePath(page), data, 0644)
}

// latestPage scans upward from page 1 to the first missing number.
// Page numbering is contiguous, so that is the append target even when
// no page exists yet.
func (ms *MessageStore) latestPage() int {
	page := 1
	for fileExists(ms.pagePath(page + 1)) {
		page++
	}
	return page
}

// ListPage returns the page newest-first plus whether a next page
// exists. Storage order is insertion order; presentation order is
// re-derived here on every read.
func (ms *MessageStore) ListPage(page int) ([]*models.Message, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if page < 1 {
		return []*models.Message{}, false, nil
	}

	messages, ok, err := ms.readPage(page)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return []*models.Message{}, false, nil
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp > messages[j].Timestamp
	})

	hasMore := fileExists(ms.pagePath(page + 1))
	return messages, hasMore, nil
}

// Append writes msg to the latest page, sealing it first when it is
// already at capacity: the sealed page keeps exactly its pre-append
// content and the new page starts with only msg. Returns the page the
// message landed on.
func (ms *MessageStore) Append(msg *models.Message) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	page := ms.latestPage()
	messages, _, err := ms.readPage(page)
	if err != nil {
		return 0, err
	}

	if len(messages) >= ms.cap {
		page++
		messages = []*models.Message{msg}
	} else {
		messages = append(messages, msg)
	}

	if err := ms.writePage(page, messages); err != nil {
		return 0, err
	}
	return page, nil
}

// Edit replaces the text of the first message matching both id and
// hash, scanning pages in ascending order. A wrong hash looks exactly
// like an unknown id.
func (ms *MessageStore) Edit(id, hash, text string) (*models.Message, int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for page := 1; ; page++ {
		messages, ok, err := ms.readPage(page)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			break
		}

		for _, msg := range messages {
			if msg.ID == id && msg.Hash == hash {
				msg.Text = text
				msg.Edited = true
				if err := ms.writePage(page, messages); err != nil {
					return nil, 0, err
				}
				return msg, page, nil
			}
		}
	}

	return nil, 0, ErrMessageNotFound
}

// Delete removes the first message matching both id and hash,
// preserving the relative order of the remainder. The page file stays
// in place even when emptied so numbering keeps no gaps.
func (ms *MessageStore) Delete(id, hash string) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for page := 1; ; page++ {
		messages, ok, err := ms.readPage(page)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}

		for i, msg := range messages {
			if msg.ID == id && msg.Hash == hash {
				remaining := append(messages[:i:i], messages[i+1:]...)
				if err := ms.writePage(page, remaining); err != nil {
					return 0, err
				}
				return page, nil
			}
		}
	}

	return 0, ErrMessageNotFound
}

func (ms *MessageStore) PageCount() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	count := 0
	for fileExists(ms.pagePath(count + 1)) {
		count++
	}
	return count
}

// Export returns all pages in on-disk order, for backup snapshots.
func (ms *MessageStore) Export() (map[int][]*models.Message, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pages := make(map[int][]*models.Message)
	for page := 1; ; page++ {
		messages, ok, err := ms.readPage(page)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		pages[page] = messages
	}
	return pages, nil
}

// Import writes a full page set. Only valid into an empty store: live
// page files always win over a backup.
func (ms *MessageStore) Import(pages map[int][]*models.Message) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if fileExists(ms.pagePath(1)) {
		return fmt.Errorf("refusing to import over %d existing pages", ms.latestPage())
	}
	for page, messages := range pages {
		if err := ms.writePage(page, messages); err != nil {
			return err
		}
	}
	return nil
}
