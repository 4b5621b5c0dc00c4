package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type presenceService interface {
	UpdatePresence(ctx context.Context, room, user string, patch map[string]any) (*entity.PresenceEntry, error)
	Heartbeat(ctx context.Context, room, user string) (*entity.PresenceEntry, error)
	GetPresence(ctx context.Context, room string) ([]*entity.PresenceEntry, error)
}

type updatePresenceRequest struct {
	Data map[string]any `json:"data"`
}

type entryIDResponse struct {
	ID *string `json:"id"`
}

// presenceView - an entry plus whether it was refreshed within the liveness window.
type presenceView struct {
	*entity.PresenceEntry
	Online bool `json:"online"`
}

type presenceResponse struct {
	Entries []presenceView `json:"entries"`
}

type presenceHandlers struct {
	logger   *slog.Logger
	presence presenceService
	window   time.Duration
	now      func() time.Time
}

func newPresenceHandlers(
	logger *slog.Logger, presence presenceService, window time.Duration, now func() time.Time,
) *presenceHandlers {
	return &presenceHandlers{
		logger:   logger,
		presence: presence,
		window:   window,
		now:      now,
	}
}

// updatePresence - the body is optional, an empty body only refreshes the entry.
func (that *presenceHandlers) updatePresence(c *gin.Context) {
	var req updatePresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(c, err)
		return
	}

	entry, err := that.presence.UpdatePresence(c.Request.Context(), c.Param("room"), c.Param("user"), req.Data)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entryIDResponse{ID: &entry.ID})
}

// heartbeat - a user without an entry gets a null id.
func (that *presenceHandlers) heartbeat(c *gin.Context) {
	entry, err := that.presence.Heartbeat(c.Request.Context(), c.Param("room"), c.Param("user"))
	if isNotFound(err) {
		c.JSON(http.StatusOK, entryIDResponse{})
		return
	}

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entryIDResponse{ID: &entry.ID})
}

func (that *presenceHandlers) getPresence(c *gin.Context) {
	entries, err := that.presence.GetPresence(c.Request.Context(), c.Param("room"))
	if err != nil {
		that.logger.Error("failed to get presence", "room", c.Param("room"), "error", err)
		writeError(c, err)
		return
	}

	now := that.now()
	views := make([]presenceView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, presenceView{PresenceEntry: entry, Online: entry.IsOnline(now, that.window)})
	}

	c.JSON(http.StatusOK, presenceResponse{Entries: views})
}
