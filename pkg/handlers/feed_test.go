package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Tracksy-dev/passer/pkg/feed"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errTest = errors.New("database unavailable")

func publicReelRows(userID uuid.UUID, titles ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "match_id", "user_id", "status", "clip_before", "clip_after", "output_path", "output_url", "error_message", "is_public", "title", "created_at", "updated_at"})
	now := time.Now().UTC()
	for i, title := range titles {
		rows.AddRow(uuid.New().String(), uuid.New().String(), userID.String(), "complete", 6.0, 6.0, "a.mp4", "http://x/a.mp4", nil, true, title, now.Add(-time.Duration(i)*time.Minute), now)
	}
	return rows
}

func profileRows(userID uuid.UUID, username, displayName string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"user_id", "username", "display_name", "bio", "team_name", "position", "avatar_path", "created_at", "updated_at"}).
		AddRow(userID.String(), username, displayName, "", "", "", nil, now, now)
}

func TestGetFeedAttachesCreators(t *testing.T) {
	h, _, mock := newTestHandlers(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'complete' AND is_public = TRUE")).
		WithArgs(0, 2).
		WillReturnRows(publicReelRows(userID, "Finals", "Semis"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE user_id IN")).
		WithArgs(userID).
		WillReturnRows(profileRows(userID, "ana", "Ana"))

	req := httptest.NewRequest(http.MethodGet, "/api/feed?offset=0&limit=2", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.GetFeed(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data feed.Page `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Data.Reels) != 2 {
		t.Fatalf("Expected 2 reels, got %d", len(resp.Data.Reels))
	}
	if !resp.Data.HasMore {
		t.Error("Expected a full page to report more")
	}
	for _, reel := range resp.Data.Reels {
		if reel.Creator == nil || reel.Creator.Username != "ana" {
			t.Errorf("Expected creator attached to reel %s, got %+v", reel.ID, reel.Creator)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet database expectations: %v", err)
	}
}

func TestGetFeedServesPageWhenCreatorLookupFails(t *testing.T) {
	h, _, mock := newTestHandlers(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'complete' AND is_public = TRUE")).
		WithArgs(0, 12).
		WillReturnRows(publicReelRows(userID, "Finals"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE user_id IN")).
		WithArgs(userID).
		WillReturnError(errTest)

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.GetFeed(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected the page without creators, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data feed.Page `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Data.Reels) != 1 {
		t.Fatalf("Expected 1 reel, got %d", len(resp.Data.Reels))
	}
	if resp.Data.Reels[0].Creator != nil {
		t.Errorf("Expected nil creator when the lookup fails, got %+v", resp.Data.Reels[0].Creator)
	}
	if resp.Data.HasMore {
		t.Error("Expected a short page to report no more")
	}
}

func TestGetFeedRejectsBadPaging(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	for _, query := range []string{"offset=-1", "limit=0", "limit=500", "offset=abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/feed?"+query, nil)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = req

		h.GetFeed(c)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %q, got %d", query, w.Code)
		}
	}
}
