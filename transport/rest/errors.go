package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const kindBadRequest = "BadRequest"

var statusByKind = map[apperror.Kind]int{
	apperror.KindNotFound:        http.StatusNotFound,
	apperror.KindNotJoinable:     http.StatusConflict,
	apperror.KindNotPlaying:      http.StatusConflict,
	apperror.KindWrongTurn:       http.StatusConflict,
	apperror.KindCellOccupied:    http.StatusConflict,
	apperror.KindInvalidPosition: http.StatusBadRequest,
	apperror.KindUnauthorized:    http.StatusForbidden,
}

func errorBody(kind, message string) gin.H {
	return gin.H{"error": gin.H{"kind": kind, "message": message}}
}

// writeError - maps err to its kind and status. Internal errors do not leak their message.
func writeError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)

	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if status == http.StatusInternalServerError && kind == apperror.KindInternal {
		message = http.StatusText(status)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorBody(string(kind), message))
}

func writeBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody(kindBadRequest, err.Error()))
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrRoomNotFound) || errors.Is(err, apperror.ErrNotFound)
}
