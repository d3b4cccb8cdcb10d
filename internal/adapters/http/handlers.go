package http

import (
	"net/http"

	"github.com/dkeye/Duet/internal/adapters/signal"
	"github.com/dkeye/Duet/internal/app/orch"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Orch       *orch.Orchestrator
	ICEServers []webrtc.ICEServer
}

type UsernameRequest struct {
	UserName string `json:"userName" binding:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// CheckUsername answers 200 when the name is free, 409 when a live
// connection holds it and 400 when the field is missing or the handshake
// would refuse the name. It only reads the registry; a free name is
// remembered in the cookie session.
func (h *Handlers) CheckUsername(c *gin.Context) {
	var req UsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid userName"})
		return
	}

	if err := domain.ValidateName(req.UserName, h.Orch.MaxNameLen); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": domain.ErrorCode(err), "error": err.Error()})
		return
	}

	if h.Orch.Registry.Has(req.UserName) {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}

	sess := sessions.Default(c)
	sess.Set(signal.SessionNameKey, req.UserName)
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an unexpected error has occurred"})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "OK"})
}

func (h *Handlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Orch.Rooms.ListPublic()})
}

func (h *Handlers) GetICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.ICEServers})
}
