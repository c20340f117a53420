package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/AaronDB2/zoom-clone-backend/internal/app"
	"github.com/AaronDB2/zoom-clone-backend/internal/config"
	"github.com/AaronDB2/zoom-clone-backend/internal/core"
	"github.com/AaronDB2/zoom-clone-backend/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Time allowed to write a frame to the peer.
const writeWait = 10 * time.Second

// wsConn is the outbound half of one client socket. It implements
// core.Sender; the write pump drains send.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame
	once sync.Once
}

func (c *wsConn) TrySend(f core.Frame) error {
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close tears down the socket. The send channel is left open: a relay
// racing a disconnect may still TrySend after unregister, and those frames
// must be dropped, not panic.
func (c *wsConn) Close() {
	c.once.Do(func() {
		_ = c.conn.Close()
	})
}

type WSController struct {
	Orch *app.Orchestrator
	Cfg  *config.Config
}

func (ctl *WSController) upgrader() websocket.Upgrader {
	allowed := ctl.Cfg.AllowedOrigin
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowed == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowed
		},
	}
}

// HandleWS upgrades the request and owns the connection lifecycle: the
// socket id assigned here is the peer's address for the whole session.
func (ctl *WSController) HandleWS(ctx context.Context, c *gin.Context) {
	up := ctl.upgrader()
	ws, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Str("module", "adapters.ws").Err(err).Msg("ws upgrade failed")
		return
	}

	sid := domain.SocketID(uuid.NewString())
	log.Info().Str("module", "adapters.ws").Str("sid", string(sid)).Msg("user connected")

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctl.Orch.Registry.Register(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}

func (ctl *WSController) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug().Str("module", "adapters.ws").Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drives all inbound events for one connection. On exit the
// connection's membership is torn down, so a dead socket can never leave a
// user stranded in a room.
func (ctl *WSController) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.SocketID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "adapters.ws").Str("sid", string(sid)).Msg("user disconnected")
		ctl.Orch.Disconnect(sid)
		cancel()
		c.Close()
	}()

	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Str("module", "adapters.ws").Str("sid", string(sid)).Err(err).Msg("read error")
				}
				return
			}
			ctl.handleEvent(sid, c, data)
		}
	}
}

func (ctl *WSController) handleEvent(sid domain.SocketID, c *wsConn, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("sid", string(sid)).Err(err).Msg("bad json")
		return
	}

	switch env.Type {
	case core.EventCreateRoom:
		var p core.CreateRoomRequest
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Warn().Str("module", "adapters.ws").Err(err).Msg("bad create-new-room payload")
			return
		}
		if err := ctl.Orch.CreateRoom(sid, p.Identity); err != nil {
			ctl.sendError(c, err)
		}
	case core.EventJoinRoom:
		var p core.JoinRoomRequest
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Warn().Str("module", "adapters.ws").Err(err).Msg("bad join-room payload")
			return
		}
		if err := ctl.Orch.JoinRoom(sid, p.Identity, p.RoomID); err != nil {
			ctl.sendError(c, err)
		}
	case core.EventConnSignal:
		var p core.SignalRequest
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Warn().Str("module", "adapters.ws").Err(err).Msg("bad conn-signal payload")
			return
		}
		ctl.Orch.RelaySignal(sid, p.ConnUserSocketID, p.Signal)
	case core.EventConnInit:
		var p core.InitRequest
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Warn().Str("module", "adapters.ws").Err(err).Msg("bad conn-init payload")
			return
		}
		ctl.Orch.RelayInit(sid, p.ConnUserSocketID)
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *WSController) sendError(c *wsConn, err error) {
	frame, encErr := core.Encode(core.EventError, core.ErrorPayload{Message: err.Error()})
	if encErr != nil {
		return
	}
	_ = c.TrySend(frame)
}
