package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type roomService interface {
	CreateRoom(ctx context.Context, hostID, hostName string) (*entity.Room, error)
	JoinRoom(ctx context.Context, code, guestID, guestName string) (*entity.Room, error)
	GetRoom(ctx context.Context, roomID string) (*entity.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*entity.Room, error)
	MakeMove(ctx context.Context, roomID, playerID string, position int) (*entity.Room, error)
	ResetGame(ctx context.Context, roomID, playerID string) (*entity.Room, error)
	LeaveRoom(ctx context.Context, roomID, playerID string) (*entity.Room, error)
	ListWaitingRooms(ctx context.Context) ([]*entity.Room, error)
}

type createRoomRequest struct {
	HostID   string `json:"host_id" binding:"required"`
	HostName string `json:"host_name" binding:"required"`
}

type joinRoomRequest struct {
	GuestID   string `json:"guest_id" binding:"required"`
	GuestName string `json:"guest_name" binding:"required"`
}

type moveRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Position *int   `json:"position" binding:"required"`
}

type playerRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

type roomRefResponse struct {
	RoomID   string `json:"room_id"`
	RoomCode string `json:"room_code"`
}

type roomResponse struct {
	Room *entity.Room `json:"room"`
}

type actionResponse struct {
	Success bool         `json:"success"`
	Room    *entity.Room `json:"room"`
}

type roomsResponse struct {
	Rooms []*entity.Room `json:"rooms"`
}

type roomHandlers struct {
	logger *slog.Logger
	rooms  roomService
}

func newRoomHandlers(logger *slog.Logger, rooms roomService) *roomHandlers {
	return &roomHandlers{
		logger: logger,
		rooms:  rooms,
	}
}

func (that *roomHandlers) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	room, err := that.rooms.CreateRoom(c.Request.Context(), req.HostID, req.HostName)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, roomRefResponse{RoomID: room.ID, RoomCode: room.Code})
}

func (that *roomHandlers) joinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	code := entity.NormalizeRoomCode(c.Param("code"))

	room, err := that.rooms.JoinRoom(c.Request.Context(), code, req.GuestID, req.GuestName)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, roomRefResponse{RoomID: room.ID, RoomCode: room.Code})
}

// getRoom - an unknown room is not an error, the room is null.
func (that *roomHandlers) getRoom(c *gin.Context) {
	room, err := that.rooms.GetRoom(c.Request.Context(), c.Param("id"))
	that.writeRoom(c, room, err)
}

func (that *roomHandlers) getRoomByCode(c *gin.Context) {
	room, err := that.rooms.GetRoomByCode(c.Request.Context(), entity.NormalizeRoomCode(c.Param("code")))
	that.writeRoom(c, room, err)
}

func (that *roomHandlers) writeRoom(c *gin.Context, room *entity.Room, err error) {
	if err != nil && !isNotFound(err) {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, roomResponse{Room: room})
}

func (that *roomHandlers) makeMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	room, err := that.rooms.MakeMove(c.Request.Context(), c.Param("id"), req.PlayerID, *req.Position)
	that.writeAction(c, room, err)
}

func (that *roomHandlers) resetGame(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	room, err := that.rooms.ResetGame(c.Request.Context(), c.Param("id"), req.PlayerID)
	that.writeAction(c, room, err)
}

// leaveRoom - the room is null when the host left and the room is gone.
func (that *roomHandlers) leaveRoom(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	room, err := that.rooms.LeaveRoom(c.Request.Context(), c.Param("id"), req.PlayerID)
	that.writeAction(c, room, err)
}

func (that *roomHandlers) writeAction(c *gin.Context, room *entity.Room, err error) {
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, actionResponse{Success: true, Room: room})
}

func (that *roomHandlers) listWaitingRooms(c *gin.Context) {
	rooms, err := that.rooms.ListWaitingRooms(c.Request.Context())
	if err != nil {
		that.logger.Error("failed to list waiting rooms", "error", err)
		writeError(c, err)
		return
	}

	if rooms == nil {
		rooms = []*entity.Room{}
	}

	c.JSON(http.StatusOK, roomsResponse{Rooms: rooms})
}
