package controllers

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"anonchat/internal/models"
	"anonchat/internal/providers"
	"anonchat/internal/services"
	"anonchat/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type ApiController struct {
	logger  providers.Logger
	service services.ChatServiceInterface
	cache   providers.CacheProviderInterface
	metrics providers.MetricsProviderInterface
}

func NewApiController(logger providers.Logger, service services.ChatServiceInterface, cache providers.CacheProviderInterface, metrics providers.MetricsProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
		metrics: metrics,
	}
}

type profileResponse struct {
	Success bool            `json:"success"`
	Hash    string          `json:"hash"`
	Profile *models.Profile `json:"profile"`
}

type nameResponse struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
}

type messageResponse struct {
	Success bool            `json:"success"`
	Message *models.Message `json:"message"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Dispatch is the single API endpoint. The branch is picked by the
// "action" field, query parameter first and then request body, falling
// back to the implicit method actions: GET lists, POST sends. Branches
// are mutually exclusive and every one terminates the request.
func (ac *ApiController) Dispatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		ac.writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	action := r.URL.Query().Get("action")
	if action == "" && len(body) > 0 {
		var envelope struct {
			Action string `json:"action"`
		}
		// peek only; the branch re-decodes the body fail-closed
		if err := json.Unmarshal(body, &envelope); err == nil {
			action = envelope.Action
		}
	}

	ac.logger.Debugf(providers.GetLogTypeByRequestType(r.Method), "%s %s action=%q remote=%s", r.Method, r.URL.Path, action, r.RemoteAddr)

	switch action {
	case "create_profile":
		ac.createProfile(w, body)
	case "get_profile":
		ac.getProfile(w, body)
	case "update_name":
		ac.updateName(w, body)
	case "edit_message":
		ac.editMessage(w, body)
	case "delete_message":
		ac.deleteMessage(w, body)
	case "":
		switch r.Method {
		case http.MethodGet:
			ac.listMessages(w, r)
		case http.MethodPost:
			ac.sendMessage(w, r, body)
		default:
			ac.writeError(w, http.StatusMethodNotAllowed, "Invalid request")
		}
	default:
		ac.writeError(w, http.StatusMethodNotAllowed, "Invalid request")
	}
}

func (ac *ApiController) createProfile(w http.ResponseWriter, body []byte) {
	var req models.CreateProfileRequest
	if err := decodeStrict(body, &req); err != nil {
		ac.writeError(w, http.StatusBadRequest, "Invalid hash or data")
		return
	}

	profile, err := ac.service.CreateProfile(req.Hash, req.Data)
	if err != nil {
		ac.writeFailure(w, err)
		return
	}

	ac.writeJSON(w, http.StatusOK, profileResponse{Success: true, Hash: req.Hash, Profile: profile})
}

func (ac *ApiController) getProfile(w http.ResponseWriter, body []byte) {
	var req models.GetProfileRequest
	if err := decodeStrict(body, &req); err != nil {
		ac.writeError(w, http.StatusBadRequest, "Invalid hash")
		return
	}

	profile, err := ac.service.GetProfile(req.Hash)
	if err != nil {
		ac.writeFailure(w, err)
		return
	}

	ac.writeJSON(w, http.StatusOK, profileResponse{Success: true, Hash: req.Hash, Profile: profile})
}

func (ac *ApiController) updateName(w http.ResponseWriter, body []byte) {
	var req models.UpdateNameRequest
	if err := decodeStrict(body, &req); err != nil {
		ac.writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	profile, err := ac.service.UpdateName(req.Hash, req.Name)
	if err != nil {
		ac.writeFailure(w, err)
		return
	}

	ac.writeJSON(w, http.StatusOK, nameResponse{Success: true, Name: profile.Name})
}

func (ac *ApiController) listMessages(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 1 {
			page = parsed
		}
	}

	ac.serveFromCacheOrCompute(w, listCacheKey(page), func() (any, error) {
		return ac.service.ListMessages(page)
	})
}

func (ac *ApiController) sendMessage(w http.ResponseWriter, r *http.Request, body []byte) {
	var req models.SendMessageRequest
	if err := decodeStrict(body, &req); err != nil {
		ac.writeError(w, http.StatusBadRequest, "Invalid message")
		return
	}

	msg, page, err := ac.service.SendMessage(remoteAddr(r), req.Hash, req.Name, req.Text)
	if err != nil {
		if errors.Is(err, storage.ErrThrottled) {
			ac.metrics.IncThrottled()
		}
		ac.writeFailure(w, err)
		return
	}

	ac.metrics.IncMessagesSent()
	ac.invalidateListing(page)
	ac.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: msg})
}

func (ac *ApiController) editMessage(w http.ResponseWriter, body []byte) {
	var req models.EditMessageRequest
	if err := decodeStrict(body, &req); err != nil {
		ac.writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	msg, page, err := ac.service.EditMessage(req.Hash, req.MessageID, req.Text)
	if err != nil {
		ac.writeFailure(w, err)
		return
	}

	ac.metrics.IncMessagesEdited()
	ac.invalidateListing(page)
	ac.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: msg})
}

func (ac *ApiController) deleteMessage(w http.ResponseWriter, body []byte) {
	var req models.DeleteMessageRequest
	if err := decodeStrict(body, &req); err != nil {
		ac.writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	page, err := ac.service.DeleteMessage(req.Hash, req.MessageID)
	if err != nil {
		ac.writeFailure(w, err)
		return
	}

	ac.metrics.IncMessagesDeleted()
	ac.invalidateListing(page)
	ac.writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.logger.Errorf(providers.TypeApp, "Listing failed: %s", err)
		ac.writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		ac.writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// invalidateListing drops the cached listing for the mutated page and
// its predecessor: the predecessor's has_more flips when a mutation
// rolled a new page into existence.
func (ac *ApiController) invalidateListing(page int) {
	ac.cache.Del(listCacheKey(page))
	if page > 1 {
		ac.cache.Del(listCacheKey(page - 1))
	}
}

func listCacheKey(page int) string {
	return "list:" + strconv.Itoa(page)
}

// writeFailure maps a domain error onto its HTTP status.
func (ac *ApiController) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrThrottled):
		ac.writeError(w, http.StatusTooManyRequests, "Too fast")
	case errors.Is(err, storage.ErrProfileNotFound):
		ac.writeError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, storage.ErrMessageNotFound):
		ac.writeError(w, http.StatusNotFound, "Message not found")
	case errors.Is(err, services.ErrInvalidHash),
		errors.Is(err, services.ErrInvalidName),
		errors.Is(err, services.ErrInvalidText),
		errors.Is(err, services.ErrInvalidMessageID),
		errors.Is(err, services.ErrInvalidFingerprint):
		ac.writeError(w, http.StatusBadRequest, capitalize(err.Error()))
	default:
		ac.logger.Errorf(providers.TypeApp, "Request failed: %s", err)
		ac.writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (ac *ApiController) writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (ac *ApiController) writeError(w http.ResponseWriter, status int, msg string) {
	ac.writeJSON(w, status, errorResponse{Error: msg})
}

// decodeStrict rejects anything that is not exactly the expected
// shape: unknown fields and trailing data are errors, never silently
// dropped.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}

// remoteAddr strips the port so one client maps to one rate marker
// regardless of the ephemeral source port.
func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
