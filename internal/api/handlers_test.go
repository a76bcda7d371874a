package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"codechat/internal/config"
	"codechat/internal/extract"
	"codechat/internal/models"
	"codechat/internal/service/ai"
	"codechat/internal/service/chat"
	"codechat/internal/storage"
	"codechat/internal/store"
)

type fakeCompleter struct {
	reply ai.Reply
	err   error
}

func (f *fakeCompleter) Complete(context.Context, string, []ai.Turn) (*ai.Reply, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := f.reply
	return &r, nil
}

func (f *fakeCompleter) ModelName() string { return "test-model" }

func newTestServer(t *testing.T, completer chat.Completer) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Initialize(db); err != nil {
		t.Fatalf("initialize schema: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	st := store.New(db, ":memory:")
	service := chat.NewService(st, completer, extract.New(st), time.Second)

	cfg := config.BasicConfig{HistoryLimit: 50, RetentionDays: 30}
	router := gin.New()
	NewHandler(service, st, cfg).RegisterRoutes(router)
	return router, st
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func createViaAPI(t *testing.T, router *gin.Engine, name string) int64 {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/conversations", gin.H{"name": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	return int64(body["conversation_id"].(float64))
}

func TestCreateAndListConversations(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{})

	id := createViaAPI(t, router, "my project")
	if id == 0 {
		t.Fatalf("expected nonzero conversation id")
	}

	w := doJSON(t, router, http.MethodGet, "/api/conversations", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	conversations := body["conversations"].([]any)
	if len(conversations) != 1 {
		t.Fatalf("expected one conversation, got %d", len(conversations))
	}
	first := conversations[0].(map[string]any)
	if first["name"] != "my project" {
		t.Fatalf("unexpected name %v", first["name"])
	}
}

func TestCreateConversationDefaultsAndTruncates(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{})

	w := doJSON(t, router, http.MethodPost, "/api/conversations", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["name"] != "New Chat" {
		t.Fatalf("expected default name, got %v", body["name"])
	}

	long := strings.Repeat("x", 150)
	w = doJSON(t, router, http.MethodPost, "/api/conversations", gin.H{"name": long})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	name := decodeBody(t, w)["name"].(string)
	if len(name) != 100 || !strings.HasSuffix(name, "...") {
		t.Fatalf("expected truncated name with ellipsis, got %q (len %d)", name, len(name))
	}
}

func TestRenameConversation(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{})
	id := createViaAPI(t, router, "old name")

	path := "/api/conversations/" + strconv.FormatInt(id, 10) + "/rename"
	w := doJSON(t, router, http.MethodPost, path, gin.H{"name": "new name"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["name"] != "new name" {
		t.Fatalf("unexpected rename response: %v", body)
	}

	w = doJSON(t, router, http.MethodPost, path, gin.H{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty name: expected 400, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/conversations/9999/rename", gin.H{"name": "ghost"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing conversation: expected 404, got %d", w.Code)
	}
}

func TestDeleteConversation(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{})
	id := createViaAPI(t, router, "doomed")

	path := "/api/conversations/" + strconv.FormatInt(id, 10)
	w := doJSON(t, router, http.MethodDelete, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}

	// Second delete finds nothing.
	w = doJSON(t, router, http.MethodDelete, path, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: expected 404, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/conversations", nil)
	body := decodeBody(t, w)
	if got := len(body["conversations"].([]any)); got != 0 {
		t.Fatalf("expected deleted conversation hidden, got %d listed", got)
	}
}

func TestPathIDValidation(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{})
	for _, path := range []string{
		"/api/conversations/abc",
		"/api/conversations/0",
		"/api/conversations/-3",
	} {
		w := doJSON(t, router, http.MethodDelete, path, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestProcessEndToEnd(t *testing.T) {
	completer := &fakeCompleter{reply: ai.Reply{
		Text:         "Sure:\n```python\nprint('hi')\n```",
		InputTokens:  8,
		OutputTokens: 21,
	}}
	router, _ := newTestServer(t, completer)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("prompt", "write hello world"); err != nil {
		t.Fatalf("write prompt field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", "notes.py")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("# context\nx = 1\n")); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("process: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}

	body := decodeBody(t, w)
	if body["conversation_id"].(float64) == 0 {
		t.Fatalf("expected implicit conversation id in %v", body)
	}
	if !strings.Contains(body["response"].(string), "[Code block in python]") {
		t.Fatalf("expected placeholder-substituted response, got %v", body["response"])
	}
	if body["input_tokens"].(float64) != 8 || body["output_tokens"].(float64) != 21 {
		t.Fatalf("token fields wrong: %v", body)
	}
	if artifacts := body["artifacts"].([]any); len(artifacts) != 1 {
		t.Fatalf("expected one artifact, got %d", len(artifacts))
	}

	// The conversation view shows the stored exchange and the context file.
	id := strconv.FormatInt(int64(body["conversation_id"].(float64)), 10)
	w = doJSON(t, router, http.MethodGet, "/api/conversations/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("load: expected 200, got %d", w.Code)
	}
	view := decodeBody(t, w)
	if got := len(view["messages"].([]any)); got != 2 {
		t.Fatalf("expected two messages, got %d", got)
	}
	if got := len(view["contexts"].([]any)); got != 1 {
		t.Fatalf("expected one context file, got %d", got)
	}
}

func TestProcessEmptyRequest(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProcessUpstreamFailure(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{err: errors.New("timeout")})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("prompt", "hello"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFavoriteStatsAndDatabaseStats(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{})
	id := createViaAPI(t, router, "tracked")
	path := "/api/conversations/" + strconv.FormatInt(id, 10)

	w := doJSON(t, router, http.MethodPost, path+"/favorite", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("favorite: expected 200, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, path+"/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	stats := decodeBody(t, w)
	if stats["message_count"].(float64) != 0 {
		t.Fatalf("expected zero messages, got %v", stats)
	}

	w = doJSON(t, router, http.MethodGet, "/api/conversations/9999/stats", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing stats: expected 404, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("database stats: expected 200, got %d", w.Code)
	}
	db := decodeBody(t, w)
	if db["active_conversations"].(float64) != 1 {
		t.Fatalf("expected one active conversation, got %v", db)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	router, st := newTestServer(t, &fakeCompleter{})
	id := createViaAPI(t, router, "portable")
	ctx := context.Background()
	if _, err := st.AddMessage(ctx, id, models.RoleUser, "hello", 3, 0, nil); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	path := "/api/conversations/" + strconv.FormatInt(id, 10) + "/export"
	w := doJSON(t, router, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	snapshot := w.Body.Bytes()

	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(snapshot))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("import: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	newID := int64(decodeBody(t, w)["conversation_id"].(float64))
	if newID == id {
		t.Fatalf("import must create a new conversation")
	}

	messages, err := st.GetMessages(ctx, newID)
	if err != nil {
		t.Fatalf("get imported messages: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "hello" {
		t.Fatalf("imported messages wrong: %+v", messages)
	}

	w = doJSON(t, router, http.MethodGet, "/api/conversations/9999/export", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing export: expected 404, got %d", w.Code)
	}
}

func TestCleanupUsesConfiguredRetention(t *testing.T) {
	router, st := newTestServer(t, &fakeCompleter{})
	createViaAPI(t, router, "recent")

	w := doJSON(t, router, http.MethodPost, "/api/cleanup", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cleanup: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["retention_days"].(float64) != 30 {
		t.Fatalf("expected configured retention of 30, got %v", body)
	}
	if body["deleted"].(float64) != 0 {
		t.Fatalf("expected nothing cleaned, got %v", body)
	}

	// Override via request body.
	w = doJSON(t, router, http.MethodPost, "/api/cleanup", gin.H{"retention_days": 7})
	if w.Code != http.StatusOK {
		t.Fatalf("cleanup override: expected 200, got %d", w.Code)
	}
	if got := decodeBody(t, w)["retention_days"].(float64); got != 7 {
		t.Fatalf("expected retention 7, got %v", got)
	}

	// Sanity: the conversation is untouched.
	list, err := st.ListConversations(context.Background(), 10, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected conversation to survive cleanup, got %d", len(list))
	}
}
