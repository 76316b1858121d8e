package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anonchat/internal/models"
	"anonchat/internal/services"
	"anonchat/internal/storage"
	"anonchat/internal/testutil"
)

type mockChatService struct {
	createProfileFn func(hash string, data map[string]any) (*models.Profile, error)
	getProfileFn    func(hash string) (*models.Profile, error)
	updateNameFn    func(hash, name string) (*models.Profile, error)
	listMessagesFn  func(page int) (*models.Listing, error)
	sendMessageFn   func(addr, hash, name, text string) (*models.Message, int, error)
	editMessageFn   func(hash, messageID, text string) (*models.Message, int, error)
	deleteMessageFn func(hash, messageID string) (int, error)

	listCalls []int
	sentAddr  string
}

func (m *mockChatService) CreateProfile(hash string, data map[string]any) (*models.Profile, error) {
	return m.createProfileFn(hash, data)
}

func (m *mockChatService) GetProfile(hash string) (*models.Profile, error) {
	return m.getProfileFn(hash)
}

func (m *mockChatService) UpdateName(hash, name string) (*models.Profile, error) {
	return m.updateNameFn(hash, name)
}

func (m *mockChatService) ListMessages(page int) (*models.Listing, error) {
	m.listCalls = append(m.listCalls, page)
	return m.listMessagesFn(page)
}

func (m *mockChatService) SendMessage(addr, hash, name, text string) (*models.Message, int, error) {
	m.sentAddr = addr
	return m.sendMessageFn(addr, hash, name, text)
}

func (m *mockChatService) EditMessage(hash, messageID, text string) (*models.Message, int, error) {
	return m.editMessageFn(hash, messageID, text)
}

func (m *mockChatService) DeleteMessage(hash, messageID string) (int, error) {
	return m.deleteMessageFn(hash, messageID)
}

func (m *mockChatService) Pages() int    { return 2 }
func (m *mockChatService) Profiles() int { return 5 }

type controllerFixture struct {
	controller *ApiController
	service    *mockChatService
	cache      *testutil.SpyCache
	metrics    *testutil.MockMetrics
}

func newFixture() *controllerFixture {
	service := &mockChatService{
		listMessagesFn: func(page int) (*models.Listing, error) {
			return &models.Listing{Messages: []*models.Message{}, Page: page, HasMore: false}, nil
		},
	}
	cache := testutil.NewSpyCache()
	metrics := &testutil.MockMetrics{}
	controller := NewApiController(&testutil.MockLogger{}, service, cache, metrics)
	return &controllerFixture{controller: controller, service: service, cache: cache, metrics: metrics}
}

func doRequest(f *controllerFixture, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:54321"
	rec := httptest.NewRecorder()
	f.controller.Dispatch(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestDispatch_CreateProfile(t *testing.T) {
	f := newFixture()
	f.service.createProfileFn = func(hash string, data map[string]any) (*models.Profile, error) {
		return &models.Profile{Name: "Anonymous", Created: 123, Fingerprint: data}, nil
	}

	rec := doRequest(f, http.MethodPost, "/", `{"action":"create_profile","hash":"abc123","data":{"userAgent":"Mozilla/5.0"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Success bool            `json:"success"`
		Hash    string          `json:"hash"`
		Profile *models.Profile `json:"profile"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "abc123", resp.Hash)
	assert.Equal(t, "Anonymous", resp.Profile.Name)
}

func TestDispatch_CreateProfile_RejectsUnknownFields(t *testing.T) {
	f := newFixture()
	f.service.createProfileFn = func(string, map[string]any) (*models.Profile, error) {
		t.Fatal("service must not be reached")
		return nil, nil
	}

	rec := doRequest(f, http.MethodPost, "/", `{"action":"create_profile","hash":"abc123","data":{},"admin":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatch_GetProfile_NotFound(t *testing.T) {
	f := newFixture()
	f.service.getProfileFn = func(string) (*models.Profile, error) {
		return nil, storage.ErrProfileNotFound
	}

	rec := doRequest(f, http.MethodPost, "/", `{"action":"get_profile","hash":"abc123"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Profile not found", resp.Error)
}

func TestDispatch_UpdateName(t *testing.T) {
	f := newFixture()
	f.service.updateNameFn = func(hash, name string) (*models.Profile, error) {
		return &models.Profile{Name: name}, nil
	}

	rec := doRequest(f, http.MethodPost, "/", `{"action":"update_name","hash":"abc123","name":"Alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Name    string `json:"name"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "Alice", resp.Name)
}

func TestDispatch_UpdateName_InvalidMapsTo400(t *testing.T) {
	f := newFixture()
	f.service.updateNameFn = func(string, string) (*models.Profile, error) {
		return nil, services.ErrInvalidName
	}

	rec := doRequest(f, http.MethodPost, "/", `{"action":"update_name","hash":"abc123","name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Invalid name", resp.Error)
}

func TestDispatch_ActionFromQueryWinsOverBody(t *testing.T) {
	f := newFixture()
	f.service.getProfileFn = func(string) (*models.Profile, error) {
		return &models.Profile{Name: "Anonymous"}, nil
	}

	rec := doRequest(f, http.MethodPost, "/?action=get_profile", `{"hash":"abc123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDispatch_ImplicitGetListsMessages(t *testing.T) {
	f := newFixture()
	f.service.listMessagesFn = func(page int) (*models.Listing, error) {
		return &models.Listing{
			Messages: []*models.Message{{ID: "m1", Hash: "abc123", Name: "Alice", Text: "hi", Timestamp: 10}},
			Page:     page,
			HasMore:  true,
		}, nil
	}

	rec := doRequest(f, http.MethodGet, "/?page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{2}, f.service.listCalls)

	var resp models.Listing
	decodeBody(t, rec, &resp)
	assert.Equal(t, 2, resp.Page)
	assert.True(t, resp.HasMore)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "m1", resp.Messages[0].ID)
}

func TestDispatch_ListPageParamCoercion(t *testing.T) {
	f := newFixture()

	for _, raw := range []string{"0", "-3", "abc", ""} {
		target := "/"
		if raw != "" {
			target = "/?page=" + raw
		}
		rec := doRequest(f, http.MethodGet, target, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// every variant resolved to page 1; only the first miss hit the service
	assert.Equal(t, []int{1}, f.service.listCalls)
}

func TestDispatch_ListServedFromCache(t *testing.T) {
	f := newFixture()

	first := doRequest(f, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(f, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	// the second request never reached the service
	assert.Equal(t, []int{1}, f.service.listCalls)
}

func TestDispatch_ImplicitPostSendsMessage(t *testing.T) {
	f := newFixture()
	f.service.sendMessageFn = func(addr, hash, name, text string) (*models.Message, int, error) {
		return &models.Message{ID: "m1", Hash: hash, Name: name, Text: text, Timestamp: 10}, 1, nil
	}

	rec := doRequest(f, http.MethodPost, "/", `{"hash":"abc123","name":"Alice","text":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool            `json:"success"`
		Message *models.Message `json:"message"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "hello", resp.Message.Text)

	assert.Equal(t, "192.0.2.1", f.service.sentAddr)
	assert.Equal(t, 1, f.metrics.Sent)
	assert.Contains(t, f.cache.Deleted, "list:1")
}

func TestDispatch_SendInvalidatesMutatedAndPrecedingPage(t *testing.T) {
	f := newFixture()
	f.service.sendMessageFn = func(addr, hash, name, text string) (*models.Message, int, error) {
		return &models.Message{ID: "m1", Hash: hash}, 3, nil
	}

	rec := doRequest(f, http.MethodPost, "/", `{"hash":"abc123","name":"Alice","text":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, f.cache.Deleted, "list:3")
	assert.Contains(t, f.cache.Deleted, "list:2")
	assert.NotContains(t, f.cache.Deleted, "list:1")
}

func TestDispatch_SendThrottled(t *testing.T) {
	f := newFixture()
	f.service.sendMessageFn = func(addr, hash, name, text string) (*models.Message, int, error) {
		return nil, 0, storage.ErrThrottled
	}

	rec := doRequest(f, http.MethodPost, "/", `{"hash":"abc123","name":"Alice","text":"hello"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Too fast", resp.Error)
	assert.Equal(t, 1, f.metrics.Throttled)
	assert.Equal(t, 0, f.metrics.Sent)
	assert.Empty(t, f.cache.Deleted)
}

func TestDispatch_EditMessage(t *testing.T) {
	f := newFixture()
	f.service.editMessageFn = func(hash, messageID, text string) (*models.Message, int, error) {
		return &models.Message{ID: messageID, Hash: hash, Text: text, Edited: true}, 1, nil
	}

	rec := doRequest(f, http.MethodPost, "/", `{"action":"edit_message","hash":"abc123","message_id":"m1","text":"changed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool            `json:"success"`
		Message *models.Message `json:"message"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Message.Edited)
	assert.Equal(t, 1, f.metrics.Edited)
	assert.Contains(t, f.cache.Deleted, "list:1")
}

func TestDispatch_EditMessage_NotFound(t *testing.T) {
	f := newFixture()
	f.service.editMessageFn = func(string, string, string) (*models.Message, int, error) {
		return nil, 0, storage.ErrMessageNotFound
	}

	rec := doRequest(f, http.MethodPost, "/", `{"action":"edit_message","hash":"abc123","message_id":"m1","text":"changed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Message not found", resp.Error)
	assert.Equal(t, 0, f.metrics.Edited)
}

func TestDispatch_DeleteMessage(t *testing.T) {
	f := newFixture()
	f.service.deleteMessageFn = func(hash, messageID string) (int, error) {
		return 2, nil
	}

	rec := doRequest(f, http.MethodPost, "/", `{"action":"delete_message","hash":"abc123","message_id":"m1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, f.metrics.Deleted)
	assert.Contains(t, f.cache.Deleted, "list:2")
	assert.Contains(t, f.cache.Deleted, "list:1")
}

func TestDispatch_UnknownAction(t *testing.T) {
	f := newFixture()

	rec := doRequest(f, http.MethodPost, "/", `{"action":"drop_tables"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Invalid request", resp.Error)
}

func TestDispatch_UnsupportedMethod(t *testing.T) {
	f := newFixture()

	rec := doRequest(f, http.MethodPut, "/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDispatch_MalformedBody(t *testing.T) {
	f := newFixture()
	f.service.sendMessageFn = func(string, string, string, string) (*models.Message, int, error) {
		t.Fatal("service must not be reached")
		return nil, 0, nil
	}

	rec := doRequest(f, http.MethodPost, "/", `{"hash":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "192.0.2.1:54321"
	assert.Equal(t, "192.0.2.1", remoteAddr(req))

	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", remoteAddr(req))

	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", remoteAddr(req))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Invalid name", capitalize("invalid name"))
	assert.Equal(t, "Already upper", capitalize("Already upper"))
	assert.Equal(t, "", capitalize(""))
}
