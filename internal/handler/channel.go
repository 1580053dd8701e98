package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	q "github.com/liveshop-app/liveshop-server/internal/queue"
	"github.com/liveshop-app/liveshop-server/internal/repository"
	queue_publisher "github.com/liveshop-app/liveshop-server/internal/service"
)

// ChannelHandler bundles the repositories behind the live channel
// endpoints.
type ChannelHandler struct {
	Channels     *repository.ChannelRepo
	Participants *repository.ChannelParticipantRepo
}

func NewChannelHandler(channels *repository.ChannelRepo, participants *repository.ChannelParticipantRepo) *ChannelHandler {
	if channels == nil || participants == nil {
		panic("nil repository passed to NewChannelHandler")
	}
	return &ChannelHandler{Channels: channels, Participants: participants}
}

type channelResp struct {
	ID              uint64     `json:"id"`
	Name            string     `json:"name"`
	HostID          uint64     `json:"host_id"`
	Status          string     `json:"status"`
	MaxParticipants uint32     `json:"max_participants"`
	IsPrivate       bool       `json:"is_private"`
	CreatedAt       time.Time  `json:"created_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

func toChannelResp(ch repository.Channel) channelResp {
	return channelResp{
		ID: ch.ID, Name: ch.Name, HostID: ch.HostID, Status: ch.Status,
		MaxParticipants: ch.MaxParticipants, IsPrivate: ch.IsPrivate,
		CreatedAt: ch.CreatedAt, EndedAt: ch.EndedAt,
	}
}

// List handles GET /v1/channels: channels still live, newest first.
func (h *ChannelHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Channels.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]channelResp, 0, len(items))
	for _, ch := range items {
		out = append(out, toChannelResp(ch))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Create handles POST /v1/channels. The creator becomes the host and is
// joined as the first participant.
func (h *ChannelHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name            string `json:"name"`
		MaxParticipants uint32 `json:"max_participants"`
		IsPrivate       bool   `json:"is_private"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || len(name) > 255 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be 1-255 characters"})
	}
	if body.MaxParticipants == 0 {
		body.MaxParticipants = 10
	}
	if body.MaxParticipants < 2 || body.MaxParticipants > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_participants must be between 2 and 100"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Channels.Create(ctx, name, uid, body.MaxParticipants, body.IsPrivate)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create channel"})
	}
	if _, err := h.Participants.Join(ctx, id, uid, repository.ParticipantRoleHost); err != nil && !errors.Is(err, repository.ErrConflict) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not join channel"})
	}
	ch, err := h.Channels.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load channel"})
	}
	return c.JSON(http.StatusCreated, toChannelResp(ch))
}

// Get handles GET /v1/channels/:id.
func (h *ChannelHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ch, err := h.Channels.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "channel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toChannelResp(ch))
}

// Join handles POST /v1/channels/:id/join. Joining while already active is
// a 409: the membership invariant allows at most one open row per
// (channel, user), and the conditional insert enforces it atomically.
func (h *ChannelHandler) Join(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ch, err := h.Channels.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "channel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if ch.Status != repository.ChannelStatusActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "channel has ended"})
	}
	// Capacity is advisory; the duplicate-membership guard below is the
	// invariant that must hold exactly.
	n, err := h.Participants.CountActive(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if uint32(n) >= ch.MaxParticipants {
		return c.JSON(http.StatusConflict, echo.Map{"error": "channel is full"})
	}

	role := repository.ParticipantRoleViewer
	if uid == ch.HostID {
		role = repository.ParticipantRoleHost
	}
	pid, err := h.Participants.Join(ctx, id, uid, role)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already joined"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "join failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"participant_id": pid,
		"channel_id":     id,
		"user_id":        uid,
		"role":           role,
	})
}

// Leave handles POST /v1/channels/:id/leave. Leaving without an open row
// is a no-op reporting changed=false, never an error.
func (h *ChannelHandler) Leave(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	left, err := h.Participants.Leave(ctx, id, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "leave failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"changed": left})
}

// End handles POST /v1/channels/:id/end. Host only. The channel row and
// every open participant row transition in one transaction; afterwards no
// active membership remains.
func (h *ChannelHandler) End(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ch, err := h.Channels.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "channel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if ch.HostID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the host can end a channel"})
	}

	departed, err := h.Channels.End(ctx, h.Participants, id)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "channel already ended"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "end failed"})
	}

	// Best effort; the channel is already ended when this fires.
	_ = queue_publisher.PublishChannelEnded(ctx, q.ChannelEndedEvent{
		ChannelID:    id,
		HostID:       uid,
		Name:         ch.Name,
		Participants: departed,
		StartedAt:    ch.CreatedAt.UTC().Format(time.RFC3339),
		EndedAt:      time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"status": repository.ChannelStatusEnded, "departed": departed})
}

// ListParticipants handles GET /v1/channels/:id/participants: the active
// roster and its count.
func (h *ChannelHandler) ListParticipants(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Channels.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "channel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	roster, err := h.Participants.ListActive(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	type participantResp struct {
		UserID   uint64    `json:"user_id"`
		Email    string    `json:"email"`
		Role     string    `json:"role"`
		JoinedAt time.Time `json:"joined_at"`
	}
	out := make([]participantResp, 0, len(roster))
	for _, p := range roster {
		out = append(out, participantResp{UserID: p.UserID, Email: p.Email, Role: p.Role, JoinedAt: p.JoinedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}
