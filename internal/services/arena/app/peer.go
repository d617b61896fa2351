package server

import (
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/louisbranch/gridsnake/internal/platform/errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"
)

const defaultSendQueue = 16

type peerConfig struct {
	sendQueue    int
	writeTimeout time.Duration
	pingInterval time.Duration
}

// peer owns the write side of one WebSocket connection. Frames are queued
// without blocking and written by a single goroutine, so a slow client only
// ever delays itself.
type peer struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce    sync.Once
	writeTimeout time.Duration
	pingInterval time.Duration
	dropped      atomic.Uint64
	log          zerolog.Logger
}

func newPeer(conn *websocket.Conn, cfg peerConfig, logger zerolog.Logger) *peer {
	if cfg.sendQueue <= 0 {
		cfg.sendQueue = defaultSendQueue
	}
	return &peer{
		conn:         conn,
		send:         make(chan []byte, cfg.sendQueue),
		done:         make(chan struct{}),
		writeTimeout: cfg.writeTimeout,
		pingInterval: cfg.pingInterval,
		log:          logger,
	}
}

// enqueue hands frame to the writer. When the queue is full the oldest
// pending frame is discarded. It reports false once the peer is closed.
func (p *peer) enqueue(frame []byte) bool {
	if len(frame) == 0 {
		return false
	}
	for {
		select {
		case <-p.done:
			return false
		default:
		}
		select {
		case p.send <- frame:
			return true
		default:
		}
		select {
		case <-p.send:
			n := p.dropped.Add(1)
			p.log.Debug().Uint64("dropped", n).Msg("send queue full, dropped oldest frame")
		default:
		}
	}
}

func (p *peer) sendError(code apperrors.Code, message string) bool {
	return p.enqueue(mustJSON(errorMessage(code, message)))
}

// writeLoop drains the send queue and emits keepalive PING frames until the
// peer closes. A failed write closes the peer.
func (p *peer) writeLoop() {
	var keepalive <-chan time.Time
	if p.pingInterval > 0 {
		ticker := time.NewTicker(p.pingInterval)
		defer ticker.Stop()
		keepalive = ticker.C
	}

	for {
		var frame []byte
		select {
		case <-p.done:
			return
		case frame = <-p.send:
		case <-keepalive:
			frame = pingFrame
		}
		if err := p.write(frame); err != nil {
			select {
			case <-p.done:
			default:
				p.log.Debug().Err(err).Msg("websocket write failed, closing connection")
			}
			p.close()
			return
		}
	}
}

func (p *peer) write(frame []byte) error {
	if p.writeTimeout > 0 {
		if err := p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
			return err
		}
	}
	return websocket.Message.Send(p.conn, string(frame))
}

func (p *peer) close() {
	p.closeOnce.Do(func() {
		close(p.done)
		if p.conn != nil {
			_ = p.conn.Close()
		}
	})
}

func (p *peer) closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
