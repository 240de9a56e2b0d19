package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hearthkeep/hearthkeep/internal/auth"
	"github.com/hearthkeep/hearthkeep/internal/coordinator"
	"github.com/hearthkeep/hearthkeep/internal/middleware"
	"github.com/hearthkeep/hearthkeep/internal/storage"
	"github.com/hearthkeep/hearthkeep/internal/storage/jsonfile"
)

// setupServer wires the full HTTP surface over real stores in a temp dir,
// mirroring the wiring in cmd/server.
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	stores, err := jsonfile.Open(storage.DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("failed to open stores: %v", err)
	}
	coord := coordinator.New(stores.Users, stores.Groups, stores.UserToDoLists,
		stores.GroupToDoLists, stores.Expenses, stores.GroupExpenses)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(stores.Users, coord)

	e := echo.New()
	public := e.Group("/api")
	NewAuthService(authenticator, jwtManager).Register(public)

	protected := e.Group("/api", middleware.RequireAuth(jwtManager))
	NewGroupService(coord, stores.Users, stores.Groups).Register(protected)
	NewToDoService(stores.UserToDoLists, stores.GroupToDoLists).Register(protected)
	NewExpenseService(coord, stores.Expenses, stores.GroupExpenses).Register(protected)
	NewChatService(stores.Chats).Register(protected)

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server
}

// call sends a JSON request and decodes the JSON response into out (when
// out is non-nil), returning the status code.
func call(t *testing.T, server *httptest.Server, method, path, token string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body failed: %v", err)
		}
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response failed: %v", err)
		}
	}
	return resp.StatusCode
}

func registerAndLogin(t *testing.T, server *httptest.Server, username string) string {
	t.Helper()

	status := call(t, server, http.MethodPost, "/api/register", "", map[string]string{
		"username":        username,
		"password":        "secret1",
		"confirmPassword": "secret1",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d", username, status)
	}

	var login loginResponse
	status = call(t, server, http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": "secret1",
	}, &login)
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d", username, status)
	}
	return login.Token
}

func TestAuthFlow(t *testing.T) {
	server := setupServer(t)

	registerAndLogin(t, server, "alice")

	// Duplicate registration is rejected with the intake reason.
	status := call(t, server, http.MethodPost, "/api/register", "", map[string]string{
		"username":        "alice",
		"password":        "secret1",
		"confirmPassword": "secret1",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("duplicate register: status %d, want 400", status)
	}

	// Bad credentials are rejected.
	status = call(t, server, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad login: status %d, want 401", status)
	}

	// Protected routes require a token.
	status = call(t, server, http.MethodGet, "/api/groups", "", nil, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("unauthenticated access: status %d, want 401", status)
	}
}

func TestGroupFlow(t *testing.T) {
	server := setupServer(t)
	aliceToken := registerAndLogin(t, server, "alice")
	bobToken := registerAndLogin(t, server, "bobby")

	var group groupResponse
	status := call(t, server, http.MethodPost, "/api/groups", aliceToken,
		map[string]string{"groupName": "flat"}, &group)
	if status != http.StatusCreated {
		t.Fatalf("create group: status %d", status)
	}
	if group.NumberOfUsers != 1 || group.Users[0] != "alice" {
		t.Errorf("unexpected group: %+v", group)
	}

	// Creating the same group again is rejected.
	status = call(t, server, http.MethodPost, "/api/groups", aliceToken,
		map[string]string{"groupName": "flat"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("duplicate group: status %d, want 400", status)
	}

	// Pre-check then join.
	var check assignmentResponse
	status = call(t, server, http.MethodGet, "/api/groups/flat/assignment", bobToken, nil, &check)
	if status != http.StatusOK || !check.Valid {
		t.Fatalf("assignment check: status %d, result %+v", status, check)
	}
	status = call(t, server, http.MethodPost, "/api/groups/flat/members", bobToken, nil, &group)
	if status != http.StatusOK {
		t.Fatalf("join group: status %d", status)
	}
	if group.NumberOfUsers != 2 {
		t.Errorf("expected 2 members, got %+v", group)
	}

	// Joining twice is rejected, and the check now reports the reason.
	status = call(t, server, http.MethodPost, "/api/groups/flat/members", bobToken, nil, nil)
	if status != http.StatusBadRequest {
		t.Errorf("duplicate join: status %d, want 400", status)
	}
	status = call(t, server, http.MethodGet, "/api/groups/flat/assignment", bobToken, nil, &check)
	if status != http.StatusOK || check.Valid || check.Reason != coordinator.ReasonAlreadyMember {
		t.Errorf("assignment re-check: status %d, result %+v", status, check)
	}

	// Unknown group is a 404.
	status = call(t, server, http.MethodGet, "/api/groups/nogroup", aliceToken, nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("unknown group: status %d, want 404", status)
	}
}

func TestToDoFlow(t *testing.T) {
	server := setupServer(t)
	token := registerAndLogin(t, server, "alice")

	status := call(t, server, http.MethodPost, "/api/groups", token,
		map[string]string{"groupName": "flat"}, nil)
	if status != http.StatusCreated {
		t.Fatalf("create group: status %d", status)
	}

	// Personal list starts empty and accepts tasks.
	var list struct {
		Tasks []map[string]any `json:"tasks"`
	}
	status = call(t, server, http.MethodGet, "/api/todos", token, nil, &list)
	if status != http.StatusOK || len(list.Tasks) != 0 {
		t.Fatalf("empty personal list: status %d, tasks %v", status, list.Tasks)
	}

	status = call(t, server, http.MethodPost, "/api/todos/tasks", token, map[string]any{
		"taskName": "groceries",
		"priority": "High",
	}, &list)
	if status != http.StatusCreated || len(list.Tasks) != 1 {
		t.Fatalf("add task: status %d, tasks %v", status, list.Tasks)
	}

	// Unknown priorities are rejected.
	status = call(t, server, http.MethodPost, "/api/todos/tasks", token, map[string]any{
		"taskName": "x",
		"priority": "Critical",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("bad priority: status %d, want 400", status)
	}

	status = call(t, server, http.MethodPost, "/api/todos/tasks/groceries/complete", token, nil, &list)
	if status != http.StatusOK {
		t.Fatalf("complete task: status %d", status)
	}
	if done, _ := list.Tasks[0]["isCompleted"].(bool); !done {
		t.Errorf("task not completed: %v", list.Tasks[0])
	}

	// Group list reads empty even though only the coordinator has
	// touched it.
	status = call(t, server, http.MethodGet, "/api/groups/flat/todos", token, nil, &list)
	if status != http.StatusOK || len(list.Tasks) != 0 {
		t.Errorf("group list: status %d, tasks %v", status, list.Tasks)
	}
}

func TestExpenseFlow(t *testing.T) {
	server := setupServer(t)
	token := registerAndLogin(t, server, "alice")

	status := call(t, server, http.MethodPost, "/api/groups", token,
		map[string]string{"groupName": "flat"}, nil)
	if status != http.StatusCreated {
		t.Fatalf("create group: status %d", status)
	}

	var created expenseResponse
	status = call(t, server, http.MethodPost, "/api/groups/flat/expenses", token, map[string]any{
		"description":  "Dinner",
		"amount":       90,
		"participants": []string{"alice", "bob", "carol"},
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("add group expense: status %d", status)
	}
	if created.Expense.PaidBy != "alice" {
		t.Errorf("payer should default to requester, got %q", created.Expense.PaidBy)
	}
	if len(created.Expense.Settlements) != 2 {
		t.Errorf("expected 2 settlements, got %v", created.Expense.Settlements)
	}

	// Non-positive amounts are rejected.
	status = call(t, server, http.MethodPost, "/api/expenses", token, map[string]any{
		"description":  "Bad",
		"amount":       -1,
		"participants": []string{"alice"},
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("negative amount: status %d, want 400", status)
	}

	// Settle both shares and confirm the expense closes out.
	var settled settleResponse
	for _, username := range []string{"bob", "carol"} {
		status = call(t, server, http.MethodPost,
			fmt.Sprintf("/api/expenses/%s/settlements", created.Key), token,
			map[string]string{"username": username}, &settled)
		if status != http.StatusOK {
			t.Fatalf("settle %s: status %d", username, status)
		}
	}
	if !settled.FullySettled {
		t.Errorf("expense should be fully settled: %+v", settled)
	}

	var listing struct {
		Expenses []expenseResponse `json:"expenses"`
	}
	status = call(t, server, http.MethodGet, "/api/groups/flat/expenses", token, nil, &listing)
	if status != http.StatusOK || len(listing.Expenses) != 1 {
		t.Errorf("group expenses: status %d, list %v", status, listing.Expenses)
	}

	var balances balancesResponse
	status = call(t, server, http.MethodGet, "/api/groups/flat/balances", token, nil, &balances)
	if status != http.StatusOK {
		t.Fatalf("balances: status %d", status)
	}
	// Both shares are settled, so no debts remain.
	if len(balances.Debts) != 0 {
		t.Errorf("expected no outstanding debts, got %v", balances.Debts)
	}
}

func TestChatFlow(t *testing.T) {
	server := setupServer(t)
	token := registerAndLogin(t, server, "alice")

	// Chat reads empty before anyone has posted, even for a group that
	// was never created: chats are lazy.
	var chat struct {
		Messages []map[string]any `json:"messages"`
	}
	status := call(t, server, http.MethodGet, "/api/groups/flat/chat", token, nil, &chat)
	if status != http.StatusOK || len(chat.Messages) != 0 {
		t.Fatalf("empty chat: status %d, messages %v", status, chat.Messages)
	}

	var message map[string]any
	status = call(t, server, http.MethodPost, "/api/groups/flat/chat", token,
		map[string]string{"text": "hello all"}, &message)
	if status != http.StatusCreated {
		t.Fatalf("post message: status %d", status)
	}
	if message["author"] != "alice" {
		t.Errorf("author = %v, want alice", message["author"])
	}
	if message["timestamp"] == nil {
		t.Error("timestamp not set")
	}

	status = call(t, server, http.MethodGet, "/api/groups/flat/chat", token, nil, &chat)
	if status != http.StatusOK || len(chat.Messages) != 1 {
		t.Errorf("chat after post: status %d, messages %v", status, chat.Messages)
	}
}
