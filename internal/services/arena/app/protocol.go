package server

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	apperrors "github.com/louisbranch/gridsnake/internal/platform/errors"
	"github.com/louisbranch/gridsnake/internal/services/arena/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

const (
	actionJoin        = "JOIN_GAME"
	actionInput       = "PLAYER_INPUT"
	actionStart       = "START_GAME"
	actionRestart     = "RESTART_GAME"
	actionPlayerID    = "PLAYER_ID"
	actionUpdateState = "UPDATE_STATE"
	actionPing        = "PING"
	actionError       = "ERROR"

	inputRestart = "RESTART"
	inputStart   = "START_GAME"

	objectSnakeHead = "SNAKE_HEAD"
	objectSnakeBody = "SNAKE_BODY"
	objectFruit     = "FRUIT"
	objectWall      = "WALL"

	// tileSize converts board cells to the pixel coordinates clients render.
	tileSize = 16

	maxNameRunes = 6
	noPlayer     = -1
)

// clientMessage is the subset of the wire schema clients send.
type clientMessage struct {
	Action     string `json:"action"`
	PlayerName string `json:"playerName,omitempty"`
	Input      string `json:"input,omitempty"`
}

// serverMessage is one outbound frame. Scoreboard and object fields are only
// meaningful on UPDATE_STATE.
type serverMessage struct {
	Action         string         `json:"action"`
	PlayerID       int            `json:"playerId"`
	Objects        []wireObject   `json:"objects"`
	GameOver       bool           `json:"gameOver"`
	GameInProgress bool           `json:"gameInProgress"`
	PlayerScores   map[int]int    `json:"playerScores"`
	PlayerNames    map[int]string `json:"playerNames"`
	Level          int            `json:"level,omitempty"`
	Error          *wireError     `json:"error,omitempty"`
}

type wireObject struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Type      string `json:"type"`
	PlayerID  int    `json:"playerId"`
	Color     string `json:"color,omitempty"`
	Name      string `json:"name,omitempty"`
	FruitType string `json:"fruitType,omitempty"`
	Health    int    `json:"health,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var pingFrame = mustJSON(serverMessage{Action: actionPing, PlayerID: noPlayer})

// encodeState flattens a snapshot into the tagged object list. Walls come
// first, then fruit, then snakes, so clients draw snakes on top.
func encodeState(snap domain.Snapshot) serverMessage {
	objects := make([]wireObject, 0, len(snap.Walls)+len(snap.Fruits)+len(snap.Segments))
	for _, c := range snap.Walls {
		objects = append(objects, tile(c, objectWall, noPlayer))
	}
	for _, f := range snap.Fruits {
		obj := tile(f.Cell, objectFruit, noPlayer)
		obj.FruitType = string(f.Kind)
		obj.Health = f.Value
		objects = append(objects, obj)
	}
	for _, seg := range snap.Segments {
		kind := objectSnakeBody
		if seg.Head {
			kind = objectSnakeHead
		}
		obj := tile(seg.Cell, kind, seg.PlayerID)
		obj.Color = seg.Color
		obj.Name = seg.Name
		objects = append(objects, obj)
	}

	return serverMessage{
		Action:         actionUpdateState,
		PlayerID:       noPlayer,
		Objects:        objects,
		GameOver:       snap.GameOver(),
		GameInProgress: snap.InProgress(),
		PlayerScores:   snap.Scores,
		PlayerNames:    snap.Names,
		Level:          snap.Level,
	}
}

func tile(c domain.Cell, kind string, playerID int) wireObject {
	return wireObject{
		X:        c.X * tileSize,
		Y:        c.Y * tileSize,
		Width:    tileSize,
		Height:   tileSize,
		Type:     kind,
		PlayerID: playerID,
	}
}

func playerIDMessage(id int) serverMessage {
	return serverMessage{Action: actionPlayerID, PlayerID: id}
}

func errorMessage(code apperrors.Code, message string) serverMessage {
	return serverMessage{
		Action:   actionError,
		PlayerID: noPlayer,
		Error:    &wireError{Code: string(code), Message: message},
	}
}

// normalizeName composes the name to NFC, strips control characters, trims it
// and keeps at most six runes. A blank result becomes "Player <id>".
func normalizeName(raw string, id int) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, norm.NFC.String(raw))
	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > maxNameRunes {
		name = strings.TrimSpace(string(runes[:maxNameRunes]))
	}
	if name == "" {
		return fmt.Sprintf("Player %d", id)
	}
	return name
}

// decodeClientMessage parses one inbound text frame.
func decodeClientMessage(raw []byte) (clientMessage, error) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return clientMessage{}, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid frame payload", err)
	}
	return msg, nil
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("marshal websocket frame")
		return nil
	}
	return b
}
