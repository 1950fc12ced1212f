package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestMarkPointPullsTimestampBack(t *testing.T) {
	h, _, mock := newTestHandlers(t)
	userID := uuid.New()
	matchID := uuid.New()
	pointID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM matches WHERE id = $1")).
		WithArgs(matchID).
		WillReturnRows(matchRow(matchID, userID))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO match_points")).
		WithArgs(matchID, userID, 7.0, "spike", 5.0, 5.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(pointID.String(), now))

	body, _ := json.Marshal(gin.H{"playback_time": 12.0, "action": "spike"})
	req := httptest.NewRequest(http.MethodPost, "/api/matches/"+matchID.String()+"/points", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c, w := newAuthedContext(t, userID, req)
	c.Params = gin.Params{{Key: "id", Value: matchID.String()}}

	h.MarkPoint(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data PointResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Data.Timestamp != 7 {
		t.Errorf("Expected marking at playhead 12 to record 7, got %.1f", resp.Data.Timestamp)
	}
	if resp.Data.Window.Start != 2 || resp.Data.Window.End != 12 {
		t.Errorf("Expected clip window 2-12, got %.1f-%.1f", resp.Data.Window.Start, resp.Data.Window.End)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet database expectations: %v", err)
	}
}

func TestMarkPointRejectsUnknownAction(t *testing.T) {
	h, _, mock := newTestHandlers(t)
	userID := uuid.New()
	matchID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM matches WHERE id = $1")).
		WithArgs(matchID).
		WillReturnRows(matchRow(matchID, userID))

	body, _ := json.Marshal(gin.H{"playback_time": 12.0, "action": "dunk"})
	req := httptest.NewRequest(http.MethodPost, "/api/matches/"+matchID.String()+"/points", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c, w := newAuthedContext(t, userID, req)
	c.Params = gin.Params{{Key: "id", Value: matchID.String()}}

	h.MarkPoint(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for an unknown action, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMarkPointForbiddenForNonOwner(t *testing.T) {
	h, _, mock := newTestHandlers(t)
	matchID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM matches WHERE id = $1")).
		WithArgs(matchID).
		WillReturnRows(matchRow(matchID, uuid.New()))

	body, _ := json.Marshal(gin.H{"playback_time": 12.0, "action": "spike"})
	req := httptest.NewRequest(http.MethodPost, "/api/matches/"+matchID.String()+"/points", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c, w := newAuthedContext(t, uuid.New(), req)
	c.Params = gin.Params{{Key: "id", Value: matchID.String()}}

	h.MarkPoint(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestApplyPointOffsetsReportsPartialFailure(t *testing.T) {
	h, _, mock := newTestHandlers(t)
	userID := uuid.New()
	matchID := uuid.New()
	okPoint := uuid.New()
	gonePoint := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM matches WHERE id = $1")).
		WithArgs(matchID).
		WillReturnRows(matchRow(matchID, userID))

	// The two offset writes run concurrently, so their order is not fixed.
	mock.MatchExpectationsInOrder(false)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE match_points SET")).
		WithArgs(3.0, 8.0, okPoint, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE match_points SET")).
		WithArgs(4.0, 9.0, gonePoint, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	body, _ := json.Marshal(gin.H{"updates": []gin.H{
		{"id": okPoint.String(), "clip_before": 3.0, "clip_after": 8.0},
		{"id": gonePoint.String(), "clip_before": 4.0, "clip_after": 9.0},
	}})
	req := httptest.NewRequest(http.MethodPatch, "/api/matches/"+matchID.String()+"/points/offsets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c, w := newAuthedContext(t, userID, req)
	c.Params = gin.Params{{Key: "id", Value: matchID.String()}}

	h.ApplyPointOffsets(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Results []OffsetResultResponse `json:"results"`
			Saved   int                    `json:"saved"`
			Failed  int                    `json:"failed"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Data.Saved != 1 || resp.Data.Failed != 1 {
		t.Errorf("Expected 1 saved and 1 failed, got %d/%d", resp.Data.Saved, resp.Data.Failed)
	}
	if len(resp.Data.Results) != 2 {
		t.Fatalf("Expected a result per update, got %d", len(resp.Data.Results))
	}
	if !resp.Data.Results[0].Saved || resp.Data.Results[0].ID != okPoint.String() {
		t.Errorf("Expected first result saved for %s, got %+v", okPoint, resp.Data.Results[0])
	}
	if resp.Data.Results[1].Saved {
		t.Errorf("Expected second result failed, got %+v", resp.Data.Results[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet database expectations: %v", err)
	}
}

func TestDeletePointNotFound(t *testing.T) {
	h, _, mock := newTestHandlers(t)
	userID := uuid.New()
	pointID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM match_points")).
		WithArgs(pointID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodDelete, "/api/points/"+pointID.String(), nil)
	c, w := newAuthedContext(t, userID, req)
	c.Params = gin.Params{{Key: "id", Value: pointID.String()}}

	h.DeletePoint(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}
