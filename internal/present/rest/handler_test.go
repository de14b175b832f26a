package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/redchat/redchat"
	"github.com/redchat/redchat/internal/domain"
	"github.com/redchat/redchat/internal/present/rest/middleware"
	"github.com/redchat/redchat/internal/service"
	"github.com/redchat/redchat/internal/usecase"
)

// --- mocks ---

type mockUserRepo struct {
	users map[string]domain.User
}

func (m *mockUserRepo) Create(ctx context.Context, user domain.User) error {
	m.users[user.ID] = user
	return nil
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.NotFoundError{Resource: "user"}
	}
	return user, nil
}
func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, domain.NotFoundError{Resource: "user"}
}
func (m *mockUserRepo) ListUsernames(ctx context.Context) ([]string, error) {
	return []string{"alice", "bob"}, nil
}
func (m *mockUserRepo) GetPublicKey(ctx context.Context, id string) (string, error) {
	user, ok := m.users[id]
	if !ok || user.PublicKey == "" {
		return "", domain.NotFoundError{Resource: "public key"}
	}
	return user.PublicKey, nil
}

type mockFriendRepo struct {
	edges map[[2]string]bool
}

func (m *mockFriendRepo) CreatePair(ctx context.Context, userID, friendID string) error {
	if m.edges[[2]string{userID, friendID}] {
		return domain.ConflictError{Resource: "friendship"}
	}
	m.edges[[2]string{userID, friendID}] = true
	m.edges[[2]string{friendID, userID}] = true
	return nil
}
func (m *mockFriendRepo) DeletePair(ctx context.Context, userID, friendID string) error {
	delete(m.edges, [2]string{userID, friendID})
	delete(m.edges, [2]string{friendID, userID})
	return nil
}
func (m *mockFriendRepo) HasEdge(ctx context.Context, fromID, toID string) (bool, error) {
	return m.edges[[2]string{fromID, toID}], nil
}
func (m *mockFriendRepo) ListFriends(ctx context.Context, userID string) ([]domain.User, error) {
	return []domain.User{{ID: "bob-id", Username: "bob"}}, nil
}

type mockMessageRepo struct {
	stored []domain.Message
}

func (m *mockMessageRepo) Create(ctx context.Context, message domain.Message) (domain.Message, error) {
	message.SentAt = time.Now().UTC()
	m.stored = append(m.stored, message)
	return message, nil
}
func (m *mockMessageRepo) GetBetween(ctx context.Context, userID, otherID string) ([]domain.Message, error) {
	return m.stored, nil
}

type nopPublisher struct{}

func (nopPublisher) PublishToUser(ctx context.Context, userID string, event redchat.Event) error {
	return nil
}

// --- harness ---

func newTestServer(t *testing.T) (*echo.Echo, *service.AuthService, *mockUserRepo, *mockFriendRepo, *mockMessageRepo) {
	t.Helper()

	config := domain.Config{JwtSecret: "test-secret", JwtIssuer: "redchat"}
	userRepo := &mockUserRepo{users: map[string]domain.User{}}
	friendRepo := &mockFriendRepo{edges: map[[2]string]bool{}}
	messageRepo := &mockMessageRepo{}

	userUC := usecase.NewUserUsecase(userRepo)
	friendUC := usecase.NewFriendUsecase(friendRepo, userRepo)
	messageUC := usecase.NewMessageUsecase(messageRepo, friendRepo, nopPublisher{})
	auth := service.NewAuthService(config)

	h := NewHandler(config, userUC, friendUC, messageUC, auth, nil)

	e := echo.New()
	e.Use(middleware.NewAuthMiddleware(auth).IdentifyIdentity)
	h.RegisterRoutes(e)

	return e, auth, userRepo, friendRepo, messageRepo
}

func bearerToken(t *testing.T, auth *service.AuthService, userID string) string {
	t.Helper()
	token, err := auth.IssueToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	return "Bearer " + token
}

// --- tests ---

func TestHandleGetPublicKey(t *testing.T) {
	e, auth, userRepo, _, _ := newTestServer(t)
	userRepo.users["bob-id"] = domain.User{ID: "bob-id", Username: "bob", PublicKey: "PEM"}

	// anonymous requests are rejected
	req := httptest.NewRequest(http.MethodGet, "/api/auth/keys/bob-id", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}

	// authenticated lookup returns the published key
	req = httptest.NewRequest(http.MethodGet, "/api/auth/keys/bob-id", nil)
	req.Header.Set("authorization", bearerToken(t, auth, "alice-id"))
	res = httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}

	var payload redchat.PublicKeyResponse
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.PublicKey != "PEM" {
		t.Fatalf("expected PEM got %q", payload.PublicKey)
	}

	// unknown user is a 404
	req = httptest.NewRequest(http.MethodGet, "/api/auth/keys/ghost", nil)
	req.Header.Set("authorization", bearerToken(t, auth, "alice-id"))
	res = httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
}

func TestHandleLoginRejectsBadCredentials(t *testing.T) {
	e, _, _, _, _ := newTestServer(t)

	body, _ := json.Marshal(redchat.LoginRequest{Username: "nobody", Password: "pw"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
}

func TestHandleAddFriend(t *testing.T) {
	e, auth, userRepo, friendRepo, _ := newTestServer(t)
	userRepo.users["alice-id"] = domain.User{ID: "alice-id", Username: "alice"}
	userRepo.users["bob-id"] = domain.User{ID: "bob-id", Username: "bob"}

	req := httptest.NewRequest(http.MethodPost, "/api/friends/bob-id", nil)
	req.Header.Set("authorization", bearerToken(t, auth, "alice-id"))
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}

	if !friendRepo.edges[[2]string{"alice-id", "bob-id"}] || !friendRepo.edges[[2]string{"bob-id", "alice-id"}] {
		t.Fatalf("expected both directed edges to exist")
	}

	// adding again conflicts
	req = httptest.NewRequest(http.MethodPost, "/api/friends/bob-id", nil)
	req.Header.Set("authorization", bearerToken(t, auth, "alice-id"))
	res = httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", res.Code)
	}
}

func TestHandleHistoryReturnsCiphertext(t *testing.T) {
	e, auth, _, _, messageRepo := newTestServer(t)
	messageRepo.stored = []domain.Message{
		{ID: "1", SenderID: "alice-id", ReceiverID: "bob-id", Envelope: "iv|rk|sk|ct|tag", SentAt: time.Now().UTC()},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/messages/bob-id", nil)
	req.Header.Set("authorization", bearerToken(t, auth, "alice-id"))
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var items []redchat.Message
	if err := json.Unmarshal(res.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(items) != 1 || items[0].Envelope != "iv|rk|sk|ct|tag" {
		t.Fatalf("expected stored envelope verbatim, got %+v", items)
	}
}
