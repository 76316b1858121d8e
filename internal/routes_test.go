package internal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anonchat/internal/controllers"
	"anonchat/internal/services"
	"anonchat/internal/storage"
	"anonchat/internal/structures"
	"anonchat/internal/testutil"
)

func newTestMux(t *testing.T, cooldown time.Duration) *http.ServeMux {
	t.Helper()
	conf := &structures.Config{
		Storage: structures.StorageConfig{Dir: t.TempDir(), MessagesPerPage: 20},
		Chat: structures.ChatConfig{
			Cooldown:      cooldown,
			MaxNameLength: 20,
			MaxTextLength: 200,
			DefaultName:   "Anonymous",
		},
	}
	logger := &testutil.MockLogger{}

	profiles, err := storage.NewProfileStore(conf, logger)
	require.NoError(t, err)
	messages, err := storage.NewMessageStore(conf, logger)
	require.NoError(t, err)
	limiter, err := storage.NewRateLimiter(conf, logger)
	require.NoError(t, err)
	service := services.NewChatService(conf, profiles, messages, limiter)

	apiController := controllers.NewApiController(logger, service, testutil.NewSpyCache(), &testutil.MockMetrics{})
	healthController := controllers.NewHealthController(service)

	mux := http.NewServeMux()
	for _, route := range InitRoutes(apiController, healthController).GetRoutes() {
		mux.Handle(route.Url, route.Handler)
	}
	return mux
}

func TestRoutes_HealthIsGetOnly(t *testing.T) {
	mux := newTestMux(t, time.Minute)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", strings.NewReader("{}")))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoutes_RootDispatchesBothMethods(t *testing.T) {
	mux := newTestMux(t, time.Minute)

	send := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"hash":"abc123","name":"Alice","text":"hello"}`))
	send.RemoteAddr = "192.0.2.1:54321"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, send)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Messages []struct {
			Text string `json:"text"`
		} `json:"messages"`
		Page    int  `json:"page"`
		HasMore bool `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Messages, 1)
	assert.Equal(t, "hello", listing.Messages[0].Text)
	assert.Equal(t, 1, listing.Page)
	assert.False(t, listing.HasMore)
}

func TestRoutes_SendThrottleEditOwnershipFlow(t *testing.T) {
	mux := newTestMux(t, 100*time.Millisecond)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.RemoteAddr = "192.0.2.1:54321"
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"hash":"a1","name":"Alice","text":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var sent struct {
		Message struct {
			ID     string `json:"id"`
			Text   string `json:"text"`
			Edited bool   `json:"edited"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))
	require.NotEmpty(t, sent.Message.ID)
	assert.Equal(t, "hi", sent.Message.Text)
	assert.False(t, sent.Message.Edited)

	// immediate second send from the same address hits the cooldown
	rec = post(`{"hash":"a1","name":"Alice","text":"again"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	time.Sleep(150 * time.Millisecond)

	rec = post(`{"action":"edit_message","hash":"a1","message_id":"` + sent.Message.ID + `","text":"hi there"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var edited struct {
		Message struct {
			Text   string `json:"text"`
			Edited bool   `json:"edited"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edited))
	assert.Equal(t, "hi there", edited.Message.Text)
	assert.True(t, edited.Message.Edited)

	// the same edit under a different identity must not find the message
	rec = post(`{"action":"edit_message","hash":"b2","message_id":"` + sent.Message.ID + `","text":"hijacked"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
