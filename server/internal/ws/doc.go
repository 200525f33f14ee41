// Package ws implements the WebSocket report stream for netpulse-server.
//
// Hub tracks connected clients and pushes each new cycle report to all of
// them. It polls the store every interval and broadcasts only when the latest
// cycle ID has changed, so an idle server sends nothing but pings.
//
// On connect a client immediately receives the current state:
//
//	{"event": "report",  "data": { /* same schema as GET /api/v1/report */ }}
//	{"event": "waiting", "data": null}   // no live report yet
//
// The endpoint is mounted at /ws/stream by the server.
package ws
