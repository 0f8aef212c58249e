package models

import "encoding/json"

// ========================= Results =========================
// Finished races, shared by the game server, the stats store and the stats API.

type RaceResult struct {
	Session       string `json:"session"`
	Winner        string `json:"winner"` // "human" or "computer"
	Turns         int    `json:"turns"`
	HumanRolls    int    `json:"human_rolls"`
	ComputerRolls int    `json:"computer_rolls"`
	BoardSize     int    `json:"board_size"`
	DurationMS    int64  `json:"duration_ms"`
	FinishedAt    int64  `json:"finished_at"` // unix seconds
}

type ResultsSummary struct {
	Games         int     `json:"games"`
	HumanWins     int     `json:"human_wins"`
	ComputerWins  int     `json:"computer_wins"`
	ShortestTurns int     `json:"shortest_turns,omitempty"`
	AverageTurns  float64 `json:"average_turns"`
}

// ========================= WebSocket =========================

// Server -> client message types.
const (
	MsgHello   = "hello"
	MsgBoard   = "board"
	MsgPiece   = "piece"
	MsgDie     = "die"
	MsgStatus  = "status"
	MsgTrigger = "trigger"
	MsgSpeak   = "speak"
	MsgHush    = "hush"
	MsgListen  = "listen"
	MsgNotice  = "notice"
)

// Client -> server message types.
const (
	InHello      = "hello"
	InClick      = "click"
	InKey        = "key"
	InVoice      = "voice"
	InVoiceError = "voice_error"
	InSpoken     = "spoken"
	InNewGame    = "new_game"
)

type WsMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type ClientMsg struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type HelloOut struct {
	Session    string            `json:"session"`
	Version    string            `json:"version"`
	Locale     string            `json:"locale"`
	RollKey    string            `json:"roll_key"`
	VoiceKey   string            `json:"voice_key"`
	RestartKey string            `json:"restart_key"`
	Pieces     map[string]string `json:"pieces"`
	VoiceWords []string          `json:"voice_words"`
	// shown by the page while it reconnects
	ConnectionLost string `json:"connection_lost"`
}

type BoardOut struct {
	Size        int    `json:"size"`
	StartLabel  string `json:"start_label"`
	FinishLabel string `json:"finish_label"`
}

type PieceOut struct {
	Player string `json:"player"`
	Square int    `json:"square"` // 0 = off board
}

type DieOut struct {
	Value int `json:"value"`
}

type TextOut struct {
	Text string `json:"text"`
}

type TriggerOut struct {
	Mode    string `json:"mode"` // "roll" or "restart"
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

type SpeakOut struct {
	ID   uint64  `json:"id"`
	Text string  `json:"text"`
	Lang string  `json:"lang"`
	Rate float64 `json:"rate"`
}

type ListenOut struct {
	Lang string `json:"lang"`
}

type HelloIn struct {
	Speech      bool `json:"speech"`
	Recognition bool `json:"recognition"`
}

type KeyIn struct {
	Code string `json:"code"`
}

type VoiceIn struct {
	Transcript string `json:"transcript"`
}

type VoiceErrorIn struct {
	Error string `json:"error"`
}

type SpokenIn struct {
	ID    uint64 `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
