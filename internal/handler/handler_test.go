package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devaloi/agora/internal/auth"
	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/hub"
	"github.com/devaloi/agora/internal/service"
	"github.com/devaloi/agora/internal/store"
	"github.com/devaloi/agora/internal/upload"
)

type testServer struct {
	*httptest.Server
	hub   *hub.Hub
	users *service.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	avatars, err := upload.NewAvatarStore(t.TempDir(), 5<<20)
	if err != nil {
		t.Fatalf("avatars: %v", err)
	}

	h := hub.New(zerolog.Nop())
	go h.Run()

	users := service.NewUserService(s, auth.NewTokenManager("test-secret", time.Hour))
	router := NewRouter(Deps{
		Hub:        h,
		Users:      users,
		Categories: service.NewCategoryService(s),
		Topics:     service.NewTopicService(s, s),
		Comments:   service.NewCommentService(s, s, h),
		Votes:      service.NewVoteService(s, s, s, h),
		Stats:      service.NewStatsService(s),
		Avatars:    avatars,
		Logger:     zerolog.Nop(),
		CORSOrigin: "*",
		SendBuffer: 16,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		h.Stop()
		s.Close()
	})
	return &testServer{Server: srv, hub: h, users: users}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.send(t, req, token)
}

func (ts *testServer) send(t *testing.T, req *http.Request, token string) (int, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decodeJSON(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
}

// signUp registers username through the API and returns its token and user.
func (ts *testServer) signUp(t *testing.T, username string) (string, domain.User) {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Secret123",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: %d %s", username, status, body)
	}
	return ts.signIn(t, username)
}

func (ts *testServer) signIn(t *testing.T, username string) (string, domain.User) {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "Secret123",
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, status, body)
	}
	var res service.LoginResult
	decodeJSON(t, body, &res)
	return res.Token, res.User
}

func (ts *testServer) signUpAdmin(t *testing.T) string {
	t.Helper()
	_, err := ts.users.CreateAdmin(context.Background(), service.RegisterInput{
		Username: "root",
		Email:    "root@example.com",
		Password: "Secret123",
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	token, _ := ts.signIn(t, "root")
	return token
}

// seedTopic creates a category as admin and a topic as the given user.
func (ts *testServer) seedTopic(t *testing.T, adminToken, userToken string) domain.Topic {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/categories", adminToken, map[string]string{"name": "General"})
	if status != http.StatusCreated {
		t.Fatalf("create category: %d %s", status, body)
	}
	var cat domain.Category
	decodeJSON(t, body, &cat)

	status, body = ts.do(t, http.MethodPost, "/api/topics", userToken, map[string]any{
		"title":      "Hello",
		"content":    "World",
		"categoryId": cat.ID,
		"tags":       []string{"go"},
	})
	if status != http.StatusCreated {
		t.Fatalf("create topic: %d %s", status, body)
	}
	var topic domain.Topic
	decodeJSON(t, body, &topic)
	return topic
}

func message(t *testing.T, data []byte) string {
	t.Helper()
	var body map[string]any
	decodeJSON(t, data, &body)
	s, _ := body["message"].(string)
	return s
}

func TestHealth(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	Health()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("expected ok, got %s", body["status"])
	}
}

func TestListRoomsEmpty(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/api/realtime/rooms", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var rooms []domain.RoomInfo
	decodeJSON(t, body, &rooms)
	if len(rooms) != 0 {
		t.Errorf("expected no rooms, got %v", rooms)
	}
}

func TestRoomInfoNotFound(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	status, _ := ts.do(t, http.MethodGet, "/api/realtime/rooms/nonexistent", "", nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestRoomInfoAfterJoin(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","topicId":"42"}`))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read ack: %v", err)
	}

	status, body := ts.do(t, http.MethodGet, "/api/realtime/rooms/42", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var info domain.RoomInfo
	decodeJSON(t, body, &info)
	if info.TopicID != "42" || info.Subscribers != 1 {
		t.Errorf("unexpected room info %+v", info)
	}
}

func TestRegisterLoginMe(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	token, user := ts.signUp(t, "alice")
	if token == "" {
		t.Fatal("expected a token")
	}
	if user.Username != "alice" || user.Role != domain.RoleUser {
		t.Errorf("unexpected user %+v", user)
	}

	status, body := ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me: %d %s", status, body)
	}
	var me domain.User
	decodeJSON(t, body, &me)
	if me.ID != user.ID {
		t.Errorf("expected %s, got %s", user.ID, me.ID)
	}
	if strings.Contains(string(body), "Secret123") || strings.Contains(string(body), "password") {
		t.Error("password material leaked")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.signUp(t, "alice")

	status, body := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "Secret123",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if got := message(t, body); got != "Email already in use" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.signUp(t, "alice")

	status, _ := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "Wrong1234",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}
}

func TestLoginBanned(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	adminToken := ts.signUpAdmin(t)
	_, alice := ts.signUp(t, "alice")

	status, body := ts.do(t, http.MethodPatch, "/api/auth/users/"+alice.ID+"/ban", adminToken,
		map[string]any{"duration": 2, "reason": "spam"})
	if status != http.StatusOK {
		t.Fatalf("ban: %d %s", status, body)
	}

	status, body = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "Secret123",
	})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	var res struct {
		Message   string     `json:"message"`
		BanStatus domain.Ban `json:"banStatus"`
	}
	decodeJSON(t, body, &res)
	if !res.BanStatus.IsBanned || res.BanStatus.Reason != "spam" {
		t.Errorf("unexpected ban status %+v", res.BanStatus)
	}
	if !strings.Contains(res.Message, "banned for 2 more days") {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestProtectedRoutes(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	token, _ := ts.signUp(t, "alice")

	status, body := ts.do(t, http.MethodGet, "/api/topics", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", status)
	}
	if got := message(t, body); got != "Not authorized, no token" {
		t.Errorf("unexpected message %q", got)
	}

	status, _ = ts.do(t, http.MethodGet, "/api/stats/dashboard", token, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", status)
	}

	status, _ = ts.do(t, http.MethodGet, "/api/topics/latest", "", nil)
	if status != http.StatusOK {
		t.Errorf("expected public latest feed, got %d", status)
	}
}

func TestDeactivatedTokenRejected(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	adminToken := ts.signUpAdmin(t)
	token, alice := ts.signUp(t, "alice")

	status, _ := ts.do(t, http.MethodPatch, "/api/auth/users/"+alice.ID+"/deactivate", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("deactivate: %d", status)
	}

	status, body := ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if got := message(t, body); got != "Account is deactivated" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestTopicAndCommentFlow(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	adminToken := ts.signUpAdmin(t)
	aliceToken, _ := ts.signUp(t, "alice")
	bobToken, _ := ts.signUp(t, "bob")
	topic := ts.seedTopic(t, adminToken, aliceToken)

	status, body := ts.do(t, http.MethodPost, "/api/comments", bobToken, map[string]string{
		"content": "nice",
		"topicId": topic.ID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create comment: %d %s", status, body)
	}
	var c domain.Comment
	decodeJSON(t, body, &c)

	status, _ = ts.do(t, http.MethodPut, "/api/comments/"+c.ID, aliceToken, map[string]string{"content": "hijack"})
	if status != http.StatusForbidden {
		t.Errorf("expected 403 editing someone else's comment, got %d", status)
	}

	status, body = ts.do(t, http.MethodGet, "/api/comments/topic/"+topic.ID, bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list comments: %d %s", status, body)
	}
	var list service.CommentList
	decodeJSON(t, body, &list)
	if list.CommentCount != 1 || list.Comments[0].Author.Username != "bob" {
		t.Errorf("unexpected list %+v", list)
	}

	status, body = ts.do(t, http.MethodGet, "/api/topics/"+topic.ID, bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("get topic: %d %s", status, body)
	}
	var got domain.Topic
	decodeJSON(t, body, &got)
	if got.ViewCount != 1 || got.CommentCount != 1 {
		t.Errorf("expected 1 view and 1 comment, got %+v", got)
	}
}

func TestCreateCommentMissingTopic(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	token, _ := ts.signUp(t, "alice")

	status, _ := ts.do(t, http.MethodPost, "/api/comments", token, map[string]string{
		"content": "hello",
		"topicId": "missing",
	})
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}

	status, _ = ts.do(t, http.MethodPost, "/api/comments", token, map[string]string{"topicId": "missing"})
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 without content, got %d", status)
	}
}

func TestVoteToggle(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	adminToken := ts.signUpAdmin(t)
	aliceToken, _ := ts.signUp(t, "alice")
	topic := ts.seedTopic(t, adminToken, aliceToken)

	vote := map[string]any{"referenceId": topic.ID, "referenceType": "topic", "value": 1}

	status, body := ts.do(t, http.MethodPost, "/api/votes", aliceToken, vote)
	if status != http.StatusCreated {
		t.Fatalf("first vote: %d %s", status, body)
	}

	status, body = ts.do(t, http.MethodGet, "/api/votes?referenceType=topic&referenceId="+topic.ID, aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list votes: %d %s", status, body)
	}
	var votes []domain.Vote
	decodeJSON(t, body, &votes)
	if len(votes) != 1 {
		t.Fatalf("expected 1 vote, got %d", len(votes))
	}

	status, body = ts.do(t, http.MethodPost, "/api/votes", aliceToken, vote)
	if status != http.StatusOK {
		t.Fatalf("second vote: %d %s", status, body)
	}
	var res service.VoteResult
	decodeJSON(t, body, &res)
	if res.Action != domain.VoteActionDelete || res.Vote != nil {
		t.Errorf("expected the repeated vote to be withdrawn, got %+v", res)
	}
}

func TestDashboardAsAdmin(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	adminToken := ts.signUpAdmin(t)
	aliceToken, _ := ts.signUp(t, "alice")
	ts.seedTopic(t, adminToken, aliceToken)

	status, body := ts.do(t, http.MethodGet, "/api/stats/dashboard", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("dashboard: %d %s", status, body)
	}
	var d domain.Dashboard
	decodeJSON(t, body, &d)
	if d.Stats.Users != 2 || d.Stats.Topics != 1 || d.Stats.Categories != 1 {
		t.Errorf("unexpected totals %+v", d.Stats)
	}
	if len(d.MonthlyActivity.Topics) != service.ActivityMonths {
		t.Errorf("expected %d months, got %d", service.ActivityMonths, len(d.MonthlyActivity.Topics))
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestUpdateProfileWithAvatar(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	token, _ := ts.signUp(t, "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("bio", "hello there")
	part, err := mw.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write(pngHeader)
	mw.Close()

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/users/profile", &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, body := ts.send(t, req, token)
	if status != http.StatusOK {
		t.Fatalf("update profile: %d %s", status, body)
	}

	var u domain.User
	decodeJSON(t, body, &u)
	if u.Bio != "hello there" {
		t.Errorf("expected bio to change, got %q", u.Bio)
	}
	if u.Username != "alice" {
		t.Errorf("expected username to be untouched, got %q", u.Username)
	}
	if !strings.HasPrefix(u.AvatarURL, upload.URLPrefix) || !strings.HasSuffix(u.AvatarURL, ".png") {
		t.Fatalf("unexpected avatar url %q", u.AvatarURL)
	}

	status, _ = ts.do(t, http.MethodGet, u.AvatarURL, "", nil)
	if status != http.StatusOK {
		t.Errorf("expected avatar to be served, got %d", status)
	}
}

func TestUpdateProfileRejectsText(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	token, _ := ts.signUp(t, "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("avatar", "me.png")
	part.Write([]byte("definitely not an image"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/users/profile", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, body := ts.send(t, req, token)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", status, body)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/comments", nil)
	status, _ := ts.send(t, req, "")
	if status != http.StatusNoContent {
		t.Errorf("expected 204, got %d", status)
	}
}
