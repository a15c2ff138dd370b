package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"groupchat-backend/internal/database"
	"groupchat-backend/internal/hub"
	"groupchat-backend/internal/identity"
	"groupchat-backend/internal/jwt"
	"groupchat-backend/internal/models"
	"groupchat-backend/internal/snowflake"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

var router chi.Router

func TestMain(m *testing.M) {
	nop := zap.NewNop().Sugar()

	snowflake.Setup(0)
	jwt.Setup("test secret", false)
	hub.Setup(nop, nil, true)

	cfg := models.ConfigFile{
		SelfContained: true,
		DbDatabase:    ":memory:",
		DevLogin:      true,
	}

	_, err := database.Setup(&cfg)
	if err != nil {
		panic(err)
	}

	testResolver := identity.NewResolver(identity.NewLRUCache(16, 0), "", nop)
	router = Router(&cfg, nop, testResolver)

	os.Exit(m.Run())
}

// request runs one call through the router. userID 0 means no JWT cookie.
func request(t *testing.T, method string, path string, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()

	var bodyReader *strings.Reader
	if body == "" {
		bodyReader = strings.NewReader("")
	} else {
		bodyReader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, bodyReader)

	if userID != 0 {
		cookie, err := jwt.Mint(false, userID)
		if err != nil {
			t.Fatal(err)
		}
		req.AddCookie(&cookie)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()

	err := json.NewDecoder(recorder.Body).Decode(target)
	if err != nil {
		t.Fatal(err)
	}
}

// makeServer creates a server over the API and returns its id and the default
// channel id as path-ready strings.
func makeServer(t *testing.T, ownerID int64, name string) (string, string) {
	t.Helper()

	recorder := request(t, "POST", "/api/servers", fmt.Sprintf(`{"name":%q}`, name), ownerID)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response struct {
		ID        string `json:"id"`
		ChannelID string `json:"channelId"`
	}
	decodeBody(t, recorder, &response)

	if response.ID == "" || response.ChannelID == "" {
		t.Fatalf("expected server and channel ids, got %+v", response)
	}
	return response.ID, response.ChannelID
}

func TestAuthRequired(t *testing.T) {
	recorder := request(t, "GET", "/api/servers", "", 0)
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", recorder.Code)
	}

	req := httptest.NewRequest("GET", "/api/servers", nil)
	req.AddCookie(&http.Cookie{Name: "JWT", Value: "not a token"})
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a garbage token, got %d", recorder.Code)
	}
}

func TestDevLogin(t *testing.T) {
	recorder := request(t, "POST", "/api/auth/devLogin?userID=7", "", 0)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var token string
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == "JWT" {
			token = cookie.Value
		}
	}
	if token == "" {
		t.Fatal("expected a JWT cookie to be set")
	}

	session, err := jwt.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if session.UserID != 7 {
		t.Errorf("expected user ID 7, got %d", session.UserID)
	}

	recorder = request(t, "POST", "/api/auth/devLogin?userID=-3", "", 0)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a negative user ID, got %d", recorder.Code)
	}
}

func TestCreateServerValidation(t *testing.T) {
	recorder := request(t, "POST", "/api/servers", `{"name":"   "}`, 1)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a blank name, got %d", recorder.Code)
	}

	recorder = request(t, "POST", "/api/servers", `{"name":"`+strings.Repeat("a", 101)+`"}`, 1)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an overlong name, got %d", recorder.Code)
	}

	recorder = request(t, "POST", "/api/servers", "not json", 1)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed body, got %d", recorder.Code)
	}
}

func TestServerLifecycle(t *testing.T) {
	serverID, _ := makeServer(t, 10, "Lifecycle")

	recorder := request(t, "GET", "/api/servers", "", 10)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var servers []models.Server
	decodeBody(t, recorder, &servers)
	found := false
	for _, server := range servers {
		if fmt.Sprintf("%d", server.ID) == serverID {
			found = true
		}
	}
	if !found {
		t.Error("expected the created server in the owner's list")
	}

	recorder = request(t, "PATCH", "/api/servers/"+serverID, `{"name":"Renamed"}`, 11)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-owner rename, got %d", recorder.Code)
	}

	recorder = request(t, "PATCH", "/api/servers/"+serverID, `{}`, 10)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an empty patch, got %d", recorder.Code)
	}

	recorder = request(t, "PATCH", "/api/servers/"+serverID, `{"icon":"`+strings.Repeat("a", 501)+`"}`, 10)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an overlong icon, got %d", recorder.Code)
	}

	recorder = request(t, "PATCH", "/api/servers/"+serverID, `{"name":"Renamed"}`, 10)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var fields map[string]any
	decodeBody(t, recorder, &fields)
	if fields["name"] != "Renamed" {
		t.Errorf("expected the patched name echoed back, got %v", fields["name"])
	}

	recorder = request(t, "DELETE", "/api/servers/"+serverID, "", 11)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-owner delete, got %d", recorder.Code)
	}

	recorder = request(t, "DELETE", "/api/servers/"+serverID, "", 10)
	if recorder.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", recorder.Code)
	}

	recorder = request(t, "DELETE", "/api/servers/"+serverID, "", 10)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 deleting an already deleted server, got %d", recorder.Code)
	}
}

func TestChannelEndpoints(t *testing.T) {
	serverID, generalID := makeServer(t, 20, "Channels")

	recorder := request(t, "POST", "/api/servers/"+serverID+"/channels", `{"name":"voice"}`, 21)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-owner channel create, got %d", recorder.Code)
	}

	recorder = request(t, "POST", "/api/servers/999/channels", `{"name":"voice"}`, 20)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown server, got %d", recorder.Code)
	}

	recorder = request(t, "POST", "/api/servers/"+serverID+"/channels", `{"name":"voice"}`, 20)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var voice models.Channel
	decodeBody(t, recorder, &voice)
	if voice.Position != 1 {
		t.Errorf("expected the new channel appended at position 1, got %d", voice.Position)
	}

	recorder = request(t, "GET", "/api/servers/"+serverID+"/channels", "", 21)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-member channel list, got %d", recorder.Code)
	}

	order := fmt.Sprintf(`{"orderedIds":["%d",%q]}`, voice.ID, generalID)
	recorder = request(t, "PATCH", "/api/servers/"+serverID+"/channels/reorder", order, 21)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-owner reorder, got %d", recorder.Code)
	}

	recorder = request(t, "PATCH", "/api/servers/"+serverID+"/channels/reorder", order, 20)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = request(t, "GET", "/api/servers/"+serverID+"/channels", "", 20)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var channels []models.Channel
	decodeBody(t, recorder, &channels)
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}
	if channels[0].ID != voice.ID {
		t.Error("expected voice listed first after the reorder")
	}

	recorder = request(t, "PATCH", fmt.Sprintf("/api/channels/%d", voice.ID), `{"name":"lounge"}`, 21)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-owner rename, got %d", recorder.Code)
	}

	recorder = request(t, "PATCH", fmt.Sprintf("/api/channels/%d", voice.ID), `{"name":"lounge"}`, 20)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var renamed models.Channel
	decodeBody(t, recorder, &renamed)
	if renamed.Name != "lounge" {
		t.Errorf("expected name lounge, got %s", renamed.Name)
	}

	recorder = request(t, "DELETE", fmt.Sprintf("/api/channels/%d", voice.ID), "", 20)
	if recorder.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", recorder.Code)
	}

	recorder = request(t, "PATCH", fmt.Sprintf("/api/channels/%d", voice.ID), `{"name":"gone"}`, 20)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected 404 renaming a deleted channel, got %d", recorder.Code)
	}
}

func TestMembership(t *testing.T) {
	serverID, _ := makeServer(t, 30, "Members")

	recorder := request(t, "POST", "/api/servers/999/join", "", 31)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected 404 joining an unknown server, got %d", recorder.Code)
	}

	recorder = request(t, "POST", "/api/servers/"+serverID+"/join", "", 31)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = request(t, "POST", "/api/servers/"+serverID+"/join", "", 31)
	if recorder.Code != http.StatusConflict {
		t.Errorf("expected 409 joining twice, got %d", recorder.Code)
	}

	recorder = request(t, "GET", "/api/servers/"+serverID+"/members", "", 32)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-member member list, got %d", recorder.Code)
	}

	recorder = request(t, "GET", "/api/servers/"+serverID+"/members", "", 31)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var members []map[string]any
	decodeBody(t, recorder, &members)
	if len(members) != 2 {
		t.Errorf("expected owner plus one member, got %d", len(members))
	}

	recorder = request(t, "POST", "/api/servers/"+serverID+"/leave", "", 30)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for the owner leaving, got %d", recorder.Code)
	}

	recorder = request(t, "POST", "/api/servers/"+serverID+"/leave", "", 31)
	if recorder.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", recorder.Code)
	}

	recorder = request(t, "POST", "/api/servers/"+serverID+"/leave", "", 31)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected 404 leaving twice, got %d", recorder.Code)
	}
}

func TestRemoveMember(t *testing.T) {
	serverID, _ := makeServer(t, 40, "Kick")

	recorder := request(t, "POST", "/api/servers/"+serverID+"/join", "", 41)
	if recorder.Code != http.StatusCreated {
		t.Fatal("join failed")
	}

	recorder = request(t, "DELETE", "/api/servers/"+serverID+"/members/41", "", 41)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-owner kick, got %d", recorder.Code)
	}

	recorder = request(t, "DELETE", "/api/servers/"+serverID+"/members/40", "", 40)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 kicking the owner, got %d", recorder.Code)
	}

	recorder = request(t, "DELETE", "/api/servers/"+serverID+"/members/41", "", 40)
	if recorder.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", recorder.Code)
	}

	recorder = request(t, "DELETE", "/api/servers/"+serverID+"/members/41", "", 40)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected 404 kicking a non-member, got %d", recorder.Code)
	}
}

func TestMessages(t *testing.T) {
	serverID, channelID := makeServer(t, 50, "Messages")

	recorder := request(t, "POST", "/api/servers/"+serverID+"/join", "", 51)
	if recorder.Code != http.StatusCreated {
		t.Fatal("join failed")
	}

	recorder = request(t, "POST", "/api/channels/"+channelID+"/messages", `{"content":"hello"}`, 52)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-member post, got %d", recorder.Code)
	}

	recorder = request(t, "POST", "/api/channels/999/messages", `{"content":"hello"}`, 51)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown channel, got %d", recorder.Code)
	}

	recorder = request(t, "POST", "/api/channels/"+channelID+"/messages", `{"content":"   "}`, 51)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a blank message, got %d", recorder.Code)
	}

	recorder = request(t, "POST", "/api/channels/"+channelID+"/messages", `{"content":"hello <b>there</b>"}`, 51)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var message models.Message
	decodeBody(t, recorder, &message)
	if strings.Contains(message.Content, "<b>") {
		t.Errorf("expected markup escaped, got %q", message.Content)
	}
	if message.Author.UID != 51 {
		t.Errorf("expected author identity resolved, got %+v", message.Author)
	}

	recorder = request(t, "GET", "/api/channels/"+channelID+"/messages", "", 52)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-member list, got %d", recorder.Code)
	}

	recorder = request(t, "GET", "/api/channels/"+channelID+"/messages", "", 50)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var messages []models.Message
	decodeBody(t, recorder, &messages)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	messagePath := fmt.Sprintf("/api/messages/%d", message.ID)

	recorder = request(t, "PATCH", messagePath, `{"content":"hijacked"}`, 52)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 editing someone else's message, got %d", recorder.Code)
	}

	recorder = request(t, "PATCH", messagePath, `{"content":"edited"}`, 51)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = request(t, "DELETE", messagePath, "", 52)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a delete by an uninvolved user, got %d", recorder.Code)
	}

	// the server owner moderates messages they did not write
	recorder = request(t, "DELETE", messagePath, "", 50)
	if recorder.Code != http.StatusOK {
		t.Errorf("expected 200 for an owner delete, got %d", recorder.Code)
	}

	recorder = request(t, "DELETE", messagePath, "", 50)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting an already deleted message, got %d", recorder.Code)
	}
}

func TestMessagePaginationOverAPI(t *testing.T) {
	_, channelID := makeServer(t, 60, "Paging")

	ids := make([]int64, 0, 5)
	for i := range 5 {
		recorder := request(t, "POST", "/api/channels/"+channelID+"/messages",
			fmt.Sprintf(`{"content":"message %d"}`, i), 60)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", recorder.Code)
		}
		var message models.Message
		decodeBody(t, recorder, &message)
		ids = append(ids, message.ID)
	}

	path := fmt.Sprintf("/api/channels/%s/messages?limit=2&before=%d", channelID, ids[3])
	recorder := request(t, "GET", path, "", 60)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var page []models.Message
	decodeBody(t, recorder, &page)
	if len(page) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(page))
	}
	if page[0].ID != ids[2] || page[1].ID != ids[1] {
		t.Error("expected the two messages before the cursor, newest first")
	}
}
