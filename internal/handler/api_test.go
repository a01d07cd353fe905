package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parlor/parlor/internal/auth"
	"github.com/parlor/parlor/internal/cache"
	"github.com/parlor/parlor/internal/middleware"
	"github.com/parlor/parlor/internal/model"
	"github.com/parlor/parlor/internal/ratelimit"
	"github.com/parlor/parlor/internal/service"
	"github.com/parlor/parlor/internal/storage/memory"
)

// testAPI wires the full middleware pipeline over in-memory backends,
// mirroring the production router.
type testAPI struct {
	router http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	return newTestAPIWithLimit(t, 1000)
}

// newTestAPIWithLimit mirrors the production router, with the
// rate-limit window sized per test.
func newTestAPIWithLimit(t *testing.T, limit int) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokens("test-secret", time.Hour)

	authService := service.NewAuthService(memory.NewUserStore(), tokens, nil)
	chatService := service.NewChatService(memory.NewChatStore(), memory.NewMessageStore(), nil)

	authHandler := NewAuthHandler(authService, logger)
	chatHandler := NewChatHandler(chatService, logger)

	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: ratelimit.NewMemoryLimiter(limit, time.Minute),
		Enabled: true,
		Limit:   limit,
	})

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes sit in front of the gate but behind the limiter,
		// keyed by client IP.
		r.Group(func(r chi.Router) {
			r.Use(rateLimit)
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(middleware.Auth(middleware.AuthConfig{Logger: logger, Tokens: tokens}))
			r.Use(middleware.AttachUserID)
			r.Use(rateLimit)
			r.Use(middleware.ResponseCache(middleware.CacheConfig{
				Logger: logger,
				Store:  cache.NewMemory(),
				TTL:    time.Minute,
			}))

			r.Post("/", chatHandler.Create)
			r.Get("/", chatHandler.List)
			r.Delete("/", chatHandler.DeleteMessage)
			r.Get("/{id}", chatHandler.Get)
			r.Get("/{id}/message", chatHandler.ListMessages)
			r.Post("/{id}/message", chatHandler.PostMessage)
		})
	})

	return &testAPI{router: r}
}

// do sends a request with an optional JSON body and bearer token.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates a user and returns a login token.
func (a *testAPI) register(t *testing.T, email string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "s3cret",
		"name":     "Test User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "s3cret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	return resp.Token
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if dest == nil {
		return
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v (%s)", err, envelope.Data)
	}
}

func TestAPI_FullFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "alice@example.com")

	// Create a chat.
	rec := api.do(t, http.MethodPost, "/api/v1/chat/", token, map[string]string{"name": "general"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create chat: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var chat model.Chat
	decodeData(t, rec, &chat)
	if chat.ID == "" || chat.Name != "general" {
		t.Fatalf("unexpected chat: %+v", chat)
	}
	if chat.OwnerID == "" {
		t.Fatal("expected chat to carry its owner")
	}

	// The listing shows it.
	rec = api.do(t, http.MethodGet, "/api/v1/chat/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list chats: expected 200, got %d", rec.Code)
	}
	var chats []model.Chat
	decodeData(t, rec, &chats)
	if len(chats) != 1 || chats[0].ID != chat.ID {
		t.Fatalf("unexpected listing: %+v", chats)
	}

	// Get by id.
	rec = api.do(t, http.MethodGet, "/api/v1/chat/"+chat.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get chat: expected 200, got %d", rec.Code)
	}
	var got model.Chat
	decodeData(t, rec, &got)
	if got.ID != chat.ID {
		t.Fatalf("unexpected chat: %+v", got)
	}

	// Post a message: the response is the system reply.
	rec = api.do(t, http.MethodPost, "/api/v1/chat/"+chat.ID+"/message", token, map[string]string{"message": "hi there"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post message: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var reply model.Message
	decodeData(t, rec, &reply)
	if reply.Type != model.MessageTypeSystem || reply.Message != "dummy response" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	// Both messages are listed, user first.
	rec = api.do(t, http.MethodGet, "/api/v1/chat/"+chat.ID+"/message", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list messages: expected 200, got %d", rec.Code)
	}
	var messages []model.Message
	decodeData(t, rec, &messages)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Type != model.MessageTypeUser || messages[0].Message != "hi there" {
		t.Fatalf("expected the user message first: %+v", messages[0])
	}
	if messages[1].ID != reply.ID {
		t.Fatalf("expected the system reply second: %+v", messages[1])
	}

	// Delete the reply via body id.
	rec = api.do(t, http.MethodDelete, "/api/v1/chat/", token, map[string]string{"id": reply.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete message: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var deleted model.Message
	decodeData(t, rec, &deleted)
	if deleted.ID != reply.ID {
		t.Fatalf("unexpected deleted message: %+v", deleted)
	}
}

func TestAPI_RegisterDuplicate(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice@example.com")

	rec := api.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "other",
		"name":     "Other",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "USER_ALREADY_EXIST" {
		t.Errorf("unexpected error code: %s", resp.Error)
	}
}

func TestAPI_RegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "not-an-email",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Issues []struct {
				Path []string `json:"path"`
				Code string   `json:"code"`
			} `json:"issues"`
			Name string `json:"name"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("expected success false")
	}
	if resp.Error.Name != "ValidationError" {
		t.Errorf("unexpected error name: %s", resp.Error.Name)
	}
	// Bad email plus missing password and name: every problem reported.
	if len(resp.Error.Issues) != 3 {
		t.Errorf("expected 3 issues, got %d", len(resp.Error.Issues))
	}
}

func TestAPI_LoginFailuresAreIdentical(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice@example.com")

	unknown := api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "s3cret",
	})
	wrong := api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})

	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401s, got %d and %d", unknown.Code, wrong.Code)
	}
	if unknown.Body.String() != wrong.Body.String() {
		t.Errorf("bodies must not reveal which check failed: %s vs %s",
			unknown.Body.String(), wrong.Body.String())
	}
}

func TestAPI_ChatRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/chat/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "UNAUTHORIZED" {
		t.Errorf("unexpected error code: %s", resp.Error)
	}
}

func TestAPI_CrossTenantChatIsNull(t *testing.T) {
	api := newTestAPI(t)
	aliceToken := api.register(t, "alice@example.com")
	bobToken := api.register(t, "bob@example.com")

	rec := api.do(t, http.MethodPost, "/api/v1/chat/", aliceToken, map[string]string{"name": "private"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create chat: expected 201, got %d", rec.Code)
	}
	var chat model.Chat
	decodeData(t, rec, &chat)

	// Bob sees null, exactly like a missing id.
	rec = api.do(t, http.MethodGet, "/api/v1/chat/"+chat.ID, bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	foreign := rec.Body.String()

	rec = api.do(t, http.MethodGet, "/api/v1/chat/does-not-exist", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != foreign {
		t.Errorf("foreign and missing chats must be indistinguishable: %s vs %s",
			foreign, rec.Body.String())
	}

	var envelope struct {
		Data any `json:"data"`
	}
	if err := json.Unmarshal([]byte(foreign), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data != nil {
		t.Errorf("expected null data, got %v", envelope.Data)
	}

	// Bob's listing is empty too.
	rec = api.do(t, http.MethodGet, "/api/v1/chat/", bobToken, nil)
	var chats []model.Chat
	decodeData(t, rec, &chats)
	if len(chats) != 0 {
		t.Errorf("expected no chats for bob, got %d", len(chats))
	}
}

func TestAPI_CachedReadsAreScopedToUser(t *testing.T) {
	api := newTestAPI(t)
	aliceToken := api.register(t, "alice@example.com")
	bobToken := api.register(t, "bob@example.com")

	rec := api.do(t, http.MethodPost, "/api/v1/chat/", aliceToken, map[string]string{"name": "private"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create chat: expected 201, got %d", rec.Code)
	}
	var chat model.Chat
	decodeData(t, rec, &chat)

	// Alice warms the listing cache.
	rec = api.do(t, http.MethodGet, "/api/v1/chat/", aliceToken, nil)
	var chats []model.Chat
	decodeData(t, rec, &chats)
	if len(chats) != 1 {
		t.Fatalf("expected alice's chat listed, got %d", len(chats))
	}

	// Bob hits the same path right after: the warm entry must not be
	// replayed to him.
	rec = api.do(t, http.MethodGet, "/api/v1/chat/", bobToken, nil)
	decodeData(t, rec, &chats)
	if len(chats) != 0 {
		t.Errorf("bob sees %d of alice's chats through the cache", len(chats))
	}

	// Same ordering for the single-chat read.
	rec = api.do(t, http.MethodGet, "/api/v1/chat/"+chat.ID, aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/v1/chat/"+chat.ID, bobToken, nil)
	var envelope struct {
		Data any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data != nil {
		t.Errorf("bob reads alice's chat through the cache: %v", envelope.Data)
	}
}

func TestAPI_LoginThrottledAfterRepeatedFailures(t *testing.T) {
	api := newTestAPIWithLimit(t, 3)

	attempt := func() *httptest.ResponseRecorder {
		return api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": "guess",
		})
	}

	for i := 0; i < 3; i++ {
		if rec := attempt(); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec := attempt()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exhausting the window, got %d", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "RATE_LIMITED" {
		t.Errorf("unexpected error code: %s", resp.Error)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
}

func TestAPI_PostMessageToMissingChat(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "alice@example.com")

	rec := api.do(t, http.MethodPost, "/api/v1/chat/missing/message", token, map[string]string{"message": "hi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data != nil {
		t.Errorf("expected null data, got %v", envelope.Data)
	}
}

func TestAPI_DeleteMessageTwice(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "alice@example.com")

	rec := api.do(t, http.MethodPost, "/api/v1/chat/", token, map[string]string{"name": "general"})
	var chat model.Chat
	decodeData(t, rec, &chat)

	rec = api.do(t, http.MethodPost, "/api/v1/chat/"+chat.ID+"/message", token, map[string]string{"message": "hi"})
	var reply model.Message
	decodeData(t, rec, &reply)

	first := api.do(t, http.MethodDelete, "/api/v1/chat/", token, map[string]string{"id": reply.ID})
	if first.Code != http.StatusOK {
		t.Fatalf("first delete: expected 200, got %d", first.Code)
	}

	second := api.do(t, http.MethodDelete, "/api/v1/chat/", token, map[string]string{"id": reply.ID})
	if second.Code != http.StatusOK {
		t.Fatalf("second delete: expected 200, got %d", second.Code)
	}
	var envelope struct {
		Data any `json:"data"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data != nil {
		t.Errorf("expected null data on repeat delete, got %v", envelope.Data)
	}
}

func TestAPI_ListSeesNewChatAfterCreate(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "alice@example.com")

	// Prime the cache with an empty listing.
	rec := api.do(t, http.MethodGet, "/api/v1/chat/", token, nil)
	var chats []model.Chat
	decodeData(t, rec, &chats)
	if len(chats) != 0 {
		t.Fatalf("expected empty listing, got %d", len(chats))
	}

	// Creating a chat must invalidate that cached listing.
	rec = api.do(t, http.MethodPost, "/api/v1/chat/", token, map[string]string{"name": "general"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create chat: expected 201, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/v1/chat/", token, nil)
	decodeData(t, rec, &chats)
	if len(chats) != 1 {
		t.Errorf("expected the new chat in the listing, got %d entries", len(chats))
	}
}

func TestAPI_MessagesFreshAfterPost(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "alice@example.com")

	rec := api.do(t, http.MethodPost, "/api/v1/chat/", token, map[string]string{"name": "general"})
	var chat model.Chat
	decodeData(t, rec, &chat)

	messagePath := "/api/v1/chat/" + chat.ID + "/message"

	// Prime the message cache.
	rec = api.do(t, http.MethodGet, messagePath, token, nil)
	var messages []model.Message
	decodeData(t, rec, &messages)
	if len(messages) != 0 {
		t.Fatalf("expected no messages yet, got %d", len(messages))
	}

	if rec := api.do(t, http.MethodPost, messagePath, token, map[string]string{"message": "hi"}); rec.Code != http.StatusCreated {
		t.Fatalf("post message: expected 201, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodGet, messagePath, token, nil)
	decodeData(t, rec, &messages)
	if len(messages) != 2 {
		t.Errorf("expected both messages after posting, got %d", len(messages))
	}
}
