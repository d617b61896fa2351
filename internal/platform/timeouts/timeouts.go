// Package timeouts defines shared timeout constants used across gridsnake
// binaries so transport deadlines stay discoverable in one place.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the ops gRPC endpoint.
const GRPCDial = 2 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight work during graceful
// shutdown.
const Shutdown = 5 * time.Second

// WSWrite caps a single WebSocket frame write to one client.
const WSWrite = 2 * time.Second

// WSPing is the interval between server keepalive PING frames.
const WSPing = 10 * time.Second
