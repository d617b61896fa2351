package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/gridsnake/internal/platform/errors"
	"github.com/louisbranch/gridsnake/internal/platform/timeouts"
	"github.com/louisbranch/gridsnake/internal/services/arena/domain"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/websocket"
)

const (
	maxFramePayloadBytes = 4 * 1024
	maxFramesPerSecond   = 40

	tracerName = "github.com/louisbranch/gridsnake/internal/services/arena/app"
)

// Game is the authoritative world the transport mutates and reads.
type Game interface {
	Simulation
	AddPlayer(id int, name string)
	RemovePlayer(id int)
	SetDirection(id int, dir domain.Direction)
	StartGame()
	RestartAfterGameOver() bool
	Phase() domain.Phase
	PlayerCount() int
}

// gameHub connects WebSocket peers to the shared game.
type gameHub struct {
	game     Game
	registry *registry
	peerCfg  peerConfig
	tracer   trace.Tracer
	log      zerolog.Logger
}

func newGameHub(game Game, logger zerolog.Logger) *gameHub {
	return &gameHub{
		game:     game,
		registry: newRegistry(),
		peerCfg: peerConfig{
			sendQueue:    defaultSendQueue,
			writeTimeout: timeouts.WSWrite,
			pingInterval: timeouts.WSPing,
		},
		tracer: otel.Tracer(tracerName),
		log:    logger.With().Str("component", "arena.transport").Logger(),
	}
}

// NewHandler creates arena routes over game.
func NewHandler(game Game, logger zerolog.Logger) http.Handler {
	return newHandler(newGameHub(game, logger))
}

func newHandler(hub *gameHub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(hub.handleConn)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})
	return mux
}

func (h *gameHub) handleConn(conn *websocket.Conn) {
	conn.MaxPayloadBytes = maxFramePayloadBytes
	ctx := context.Background()
	remote := ""
	if request := conn.Request(); request != nil {
		ctx = request.Context()
		remote = request.RemoteAddr
	}

	p := newPeer(conn, h.peerCfg, h.log.With().Str("remote", remote).Logger())
	h.registry.attach(p)
	go p.writeLoop()
	defer h.disconnect(ctx, p)
	p.log.Debug().Msg("websocket connection opened")

	windowStart := time.Now()
	framesInWindow := 0

	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				p.log.Warn().Int("limit", maxFramePayloadBytes).Msg("dropped oversize frame")
				p.sendError(apperrors.CodeInvalidArgument, "frame too large")
				continue
			}
			if !errors.Is(err, io.EOF) && !p.closed() {
				p.log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			if framesInWindow == maxFramesPerSecond+1 {
				p.log.Warn().Msg("frame rate limit exceeded")
				p.sendError(apperrors.CodeResourceExhausted, "rate limit exceeded")
			}
			continue
		}

		msg, err := decodeClientMessage(raw)
		if err != nil {
			p.log.Warn().Err(errors.Unwrap(err)).Int("bytes", len(raw)).Msg("dropped malformed frame")
			p.sendError(apperrors.GetCode(err), err.Error())
			continue
		}
		h.dispatch(ctx, p, msg)
	}
}

func (h *gameHub) dispatch(ctx context.Context, p *peer, msg clientMessage) {
	switch strings.ToUpper(strings.TrimSpace(msg.Action)) {
	case actionJoin:
		h.handleJoin(ctx, p, msg)
	case actionInput:
		h.handleInput(ctx, p, msg)
	case actionStart:
		h.handleStart(ctx, p)
	case actionRestart:
		h.handleRestart(ctx, p)
	case actionPing:
		p.enqueue(pingFrame)
	default:
		p.log.Debug().Str("action", msg.Action).Msg("ignored unknown action")
	}
}

func (h *gameHub) handleJoin(ctx context.Context, p *peer, msg clientMessage) {
	_, span := h.tracer.Start(ctx, "arena.join")
	defer span.End()

	id, err := h.registry.join(p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "already joined")
		p.sendError(apperrors.GetCode(err), "connection already joined")
		return
	}
	name := normalizeName(msg.PlayerName, id)
	span.SetAttributes(attribute.Int("arena.player_id", id), attribute.String("arena.player_name", name))

	h.game.AddPlayer(id, name)
	p.log.Info().Int("player_id", id).Str("name", name).Int("players", h.game.PlayerCount()).Msg("player joined")
	p.enqueue(mustJSON(playerIDMessage(id)))
	h.broadcastState()
}

func (h *gameHub) handleInput(ctx context.Context, p *peer, msg clientMessage) {
	id, ok := h.registry.playerID(p)
	if !ok {
		return
	}
	input := strings.ToUpper(strings.TrimSpace(msg.Input))
	switch input {
	case inputRestart:
		h.handleRestart(ctx, p)
		return
	case inputStart:
		h.handleStart(ctx, p)
		return
	}
	dir, ok := domain.ParseDirection(input)
	if !ok {
		p.log.Debug().Str("input", msg.Input).Msg("ignored unknown input")
		return
	}
	h.game.SetDirection(id, dir)
}

func (h *gameHub) handleStart(ctx context.Context, p *peer) {
	id, ok := h.registry.playerID(p)
	if !ok {
		return
	}
	_, span := h.tracer.Start(ctx, "arena.start", trace.WithAttributes(attribute.Int("arena.player_id", id)))
	defer span.End()

	if !h.registry.isStarter(id) {
		span.SetStatus(codes.Error, "not the starting player")
		p.sendError(apperrors.CodeForbidden, "only the first connected player can start the round")
		return
	}
	if phase := h.game.Phase(); phase != domain.PhaseLobby {
		span.SetStatus(codes.Error, "round not in lobby")
		p.sendError(apperrors.CodeFailedPrecondition, "round can only start from the lobby")
		return
	}
	h.game.StartGame()
	h.log.Info().Int("player_id", id).Msg("round started by player")
	h.broadcastState()
}

func (h *gameHub) handleRestart(ctx context.Context, p *peer) {
	id, ok := h.registry.playerID(p)
	if !ok {
		return
	}
	_, span := h.tracer.Start(ctx, "arena.restart", trace.WithAttributes(attribute.Int("arena.player_id", id)))
	defer span.End()

	if !h.game.RestartAfterGameOver() {
		span.SetStatus(codes.Error, "round not over")
		p.sendError(apperrors.CodeFailedPrecondition, "round can only restart after game over")
		return
	}
	h.log.Info().Int("player_id", id).Msg("round reset by player")
	h.broadcastState()
}

func (h *gameHub) disconnect(ctx context.Context, p *peer) {
	p.close()
	id, ok := h.registry.leave(p)
	if !ok {
		p.log.Debug().Msg("websocket connection closed before join")
		return
	}
	_, span := h.tracer.Start(ctx, "arena.disconnect", trace.WithAttributes(attribute.Int("arena.player_id", id)))
	defer span.End()

	h.game.RemovePlayer(id)
	p.log.Info().Int("player_id", id).Msg("player disconnected")
	h.broadcastState()
}

func (h *gameHub) broadcastState() {
	h.broadcast(h.game.Snapshot())
}

// broadcast encodes snap once and queues it for every joined peer.
func (h *gameHub) broadcast(snap domain.Snapshot) {
	peers := h.registry.joined()
	if len(peers) == 0 {
		return
	}
	frame := mustJSON(encodeState(snap))
	for _, p := range peers {
		p.enqueue(frame)
	}
}

// closeAll closes every attached connection so handler goroutines return.
func (h *gameHub) closeAll() {
	for _, p := range h.registry.all() {
		p.close()
	}
}
