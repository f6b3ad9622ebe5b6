package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/engagement"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/ratelimit"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/routes"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/store"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("GIN_MODE", "test")
	os.Exit(m.Run())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiFixture struct {
	router *gin.Engine
	clock  clockwork.FakeClock
}

func newAPIFixture() *apiFixture {
	clock := clockwork.NewFakeClock()
	engine := engagement.New(
		store.NewMemoryStore(),
		ratelimit.NewMemoryLimiter(ratelimit.DefaultWindow, clock),
		clock,
	)
	return &apiFixture{router: routes.SetupRouter(engine), clock: clock}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func signedToken(t *testing.T, user models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) createComment(t *testing.T, token, postID, text string, parentID *string) string {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/api/v1/posts/"+postID+"/comments", token,
		gin.H{"text": text, "parent_id": parentID})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var data struct {
		Comment models.Comment `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Comment.ID)

	f.clock.Advance(ratelimit.DefaultWindow + time.Second)
	return data.Comment.ID
}

func TestHealth(t *testing.T) {
	f := newAPIFixture()

	w, env := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
}

func TestUnknownRoute(t *testing.T) {
	f := newAPIFixture()

	w, env := f.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)
}

func TestCreateComment_RequiresToken(t *testing.T) {
	f := newAPIFixture()
	body := gin.H{"text": "hello"}

	w, env := f.do(t, http.MethodPost, "/api/v1/posts/p1/comments", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, env.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts/p1/comments", bytes.NewReader(nil))
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	w, env = f.do(t, http.MethodPost, "/api/v1/posts/p1/comments", "not-a-jwt", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40105, env.Code)
}

func TestCommentLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture()
	author := signedToken(t, models.User{ID: "alice", Name: "Alice"})
	voter := signedToken(t, models.User{ID: "bob", Name: "Bob"})

	commentID := f.createComment(t, author, "p1", "Great trip report!", nil)
	f.createComment(t, voter, "p1", "Agreed, the photos are stunning.", &commentID)

	// Anonymous listing sees the thread with a neutral tally.
	w, env := f.do(t, http.MethodGet, "/api/v1/posts/p1/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		PostID  string `json:"post_id"`
		Threads []struct {
			ID       string `json:"id"`
			NetScore int    `json:"net_score"`
			Replies  []struct {
				ID string `json:"id"`
			} `json:"replies"`
		} `json:"threads"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	require.Len(t, listing.Threads, 1)
	assert.Equal(t, commentID, listing.Threads[0].ID)
	assert.Len(t, listing.Threads[0].Replies, 1)

	// Vote, and read the aggregates straight from the response.
	w, env = f.do(t, http.MethodPost, "/api/v1/comments/"+commentID+"/vote", voter, gin.H{"type": "up"})
	require.Equal(t, http.StatusOK, w.Code)
	var voteData struct {
		Aggregates engagement.Aggregates `json:"aggregates"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &voteData))
	assert.Equal(t, 1, voteData.Aggregates.Upvotes)
	assert.Equal(t, 1, voteData.Aggregates.NetScore)
	require.NotNil(t, voteData.Aggregates.ViewerVote)
	assert.Equal(t, models.VoteUp, *voteData.Aggregates.ViewerVote)

	// Deleting the top-level comment cascades to the reply.
	w, env = f.do(t, http.MethodDelete, "/api/v1/comments/"+commentID, author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleteData struct {
		Removed int64 `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &deleteData))
	assert.EqualValues(t, 2, deleteData.Removed)
}

func TestCreateComment_Validation(t *testing.T) {
	f := newAPIFixture()
	author := signedToken(t, models.User{ID: "alice", Name: "Alice"})

	// Empty body fails binding before the engine runs.
	w, env := f.do(t, http.MethodPost, "/api/v1/posts/p1/comments", author, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40051, env.Code)

	// Whitespace passes binding and is rejected as empty text.
	w, env = f.do(t, http.MethodPost, "/api/v1/posts/p1/comments", author, gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40060, env.Code)

	missing := "no-such-parent"
	w, env = f.do(t, http.MethodPost, "/api/v1/posts/p1/comments", author,
		gin.H{"text": "orphan reply", "parent_id": &missing})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40061, env.Code)

	w, env = f.do(t, http.MethodPost, "/api/v1/posts/p1/comments", author,
		gin.H{"text": "CLICK HERE http://a http://b http://c"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40063, env.Code)
	assert.Contains(t, env.Message, "rejected")
}

func TestToggleVote_RejectsUnknownDirection(t *testing.T) {
	f := newAPIFixture()
	voter := signedToken(t, models.User{ID: "bob", Name: "Bob"})

	w, env := f.do(t, http.MethodPost, "/api/v1/comments/c1/vote", voter, gin.H{"type": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40053, env.Code)
}

func TestVoteOnMissingComment(t *testing.T) {
	f := newAPIFixture()
	voter := signedToken(t, models.User{ID: "bob", Name: "Bob"})

	w, env := f.do(t, http.MethodPost, "/api/v1/comments/missing/vote", voter, gin.H{"type": "up"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40430, env.Code)
}

func TestDeleteComment_Authorization(t *testing.T) {
	f := newAPIFixture()
	author := signedToken(t, models.User{ID: "alice", Name: "Alice"})
	stranger := signedToken(t, models.User{ID: "bob", Name: "Bob"})
	admin := signedToken(t, models.User{ID: "mod", Name: "Moderator", Role: models.RoleAdmin})

	first := f.createComment(t, author, "p1", "Mine to delete.", nil)
	second := f.createComment(t, author, "p1", "The admin can take this one.", nil)

	w, env := f.do(t, http.MethodDelete, "/api/v1/comments/"+first, stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40330, env.Code)

	w, _ = f.do(t, http.MethodDelete, "/api/v1/comments/"+first, author, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodDelete, "/api/v1/comments/"+second, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(t, http.MethodDelete, "/api/v1/comments/"+first, author, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40430, env.Code)
}

func TestCreateComment_Cooldown(t *testing.T) {
	f := newAPIFixture()
	author := signedToken(t, models.User{ID: "alice", Name: "Alice"})

	w, _ := f.do(t, http.MethodPost, "/api/v1/posts/p1/comments", author, gin.H{"text": "First thought."})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := f.do(t, http.MethodPost, "/api/v1/posts/p1/comments", author, gin.H{"text": "Second thought."})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 42910, env.Code)

	var data struct {
		RetryAfterSeconds int    `json:"retry_after_seconds"`
		RetryAt           string `json:"retry_at"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 60, data.RetryAfterSeconds)
	_, err := time.Parse(time.RFC3339, data.RetryAt)
	assert.NoError(t, err)

	// The wait shrinks as the window drains, then the author is readmitted.
	f.clock.Advance(45 * time.Second)
	_, env = f.do(t, http.MethodPost, "/api/v1/posts/p1/comments", author, gin.H{"text": "Second thought."})
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 15, data.RetryAfterSeconds)

	f.clock.Advance(15 * time.Second)
	w, _ = f.do(t, http.MethodPost, "/api/v1/posts/p1/comments", author, gin.H{"text": "Second thought."})
	assert.Equal(t, http.StatusCreated, w.Code)
}
