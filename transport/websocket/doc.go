// Package websocket streams search progress to presenters.
//
// A presenter opens a connection for one step-driven search
// (/ws?search=<id>). Every step the API performs on that search is broadcast
// to all of its connections as a JSON message:
//
//	{"search_id": "...", "event": "step", "step": {"step": 3, "current": {...},
//	 "events": [{"cell": {"row": 1, "col": 2}, "kind": "frontier_finalized"}, ...]}}
//
// The event kinds inside a step are frontier_discovered, frontier_finalized
// and path_member, in the order the planner produced them.
//
// Architecture:
//
// A central Hub owns the client sets. Register, unregister and broadcast
// requests are serviced by Hub.Run; each client has a read pump that keeps
// the connection alive and a write pump that delivers queued messages and
// pings. Broadcasting never blocks the caller: when the queue is full the
// message is dropped and logged.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	hub.ServeWS(w, r, searchID)
//	hub.BroadcastStep(searchID, step)
package websocket
