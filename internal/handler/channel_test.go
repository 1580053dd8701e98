package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/repository"
)

func channelRow(id, hostID uint64, status string, maxParticipants uint32) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "host_id", "status", "max_participants", "is_private", "created_at", "ended_at"}).
		AddRow(int64(id), "Friday drop", int64(hostID), status, int64(maxParticipants), false, time.Now(), nil)
}

func asUser(uid uint64, params ...string) func(echo.Context) {
	return func(c echo.Context) {
		c.Set("user_id", uid)
		var names, vals []string
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			vals = append(vals, params[i+1])
		}
		if len(names) > 0 {
			c.SetParamNames(names...)
			c.SetParamValues(vals...)
		}
	}
}

func TestJoin_FullChannel(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	h := NewChannelHandler(repository.NewChannelRepo(db), repository.NewChannelParticipantRepo(db))

	mock.ExpectQuery(`SELECT .* FROM channels WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(channelRow(7, 1, repository.ChannelStatusActive, 2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM channel_participants`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rec := doJSON(t, h.Join, http.MethodPost, "/v1/channels/7/join", "", asUser(3, "id", "7"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "full") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestJoin_AlreadyJoined(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	h := NewChannelHandler(repository.NewChannelRepo(db), repository.NewChannelParticipantRepo(db))

	mock.ExpectQuery(`SELECT .* FROM channels WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(channelRow(7, 1, repository.ChannelStatusActive, 10))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM channel_participants`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	// Conditional insert writes nothing: an open row already exists.
	mock.ExpectExec(`INSERT INTO channel_participants`).
		WithArgs(uint64(7), uint64(3), repository.ParticipantRoleViewer, uint64(7), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := doJSON(t, h.Join, http.MethodPost, "/v1/channels/7/join", "", asUser(3, "id", "7"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestJoin_EndedChannel(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	h := NewChannelHandler(repository.NewChannelRepo(db), repository.NewChannelParticipantRepo(db))

	mock.ExpectQuery(`SELECT .* FROM channels WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(channelRow(7, 1, repository.ChannelStatusEnded, 10))

	rec := doJSON(t, h.Join, http.MethodPost, "/v1/channels/7/join", "", asUser(3, "id", "7"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLeave_NoOpenRow(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	h := NewChannelHandler(repository.NewChannelRepo(db), repository.NewChannelParticipantRepo(db))

	mock.ExpectExec(`UPDATE channel_participants SET left_at=NOW\(\)`).
		WithArgs(uint64(7), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := doJSON(t, h.Leave, http.MethodPost, "/v1/channels/7/leave", "", asUser(3, "id", "7"))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"changed":false`) {
		t.Fatalf("leaving twice must report changed=false: %s", rec.Body.String())
	}
}

func TestEnd_NonHostForbidden(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	h := NewChannelHandler(repository.NewChannelRepo(db), repository.NewChannelParticipantRepo(db))

	mock.ExpectQuery(`SELECT .* FROM channels WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(channelRow(7, 1, repository.ChannelStatusActive, 10))

	rec := doJSON(t, h.End, http.MethodPost, "/v1/channels/7/end", "", asUser(3, "id", "7"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreate_ValidatesMaxParticipants(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()
	h := NewChannelHandler(repository.NewChannelRepo(db), repository.NewChannelParticipantRepo(db))

	rec := doJSON(t, h.Create, http.MethodPost, "/v1/channels",
		`{"name":"Friday drop","max_participants":1}`, asUser(3))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h.Create, http.MethodPost, "/v1/channels",
		`{"name":"","max_participants":10}`, asUser(3))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for empty name, got %d", rec.Code)
	}
}
