// Package server exposes the setup wizard over HTTP so that it can be driven
// from a browser or another tool.
//
// The server owns a single wizard session: the current flow.State and the
// answers collected so far. Every change is applied under one mutex, persisted
// to the session registry when a session name is configured, and pushed to all
// connected WebSocket clients.
//
// # API
//
//	GET  /api/health                  liveness and version
//	GET  /api/state                   current screen, context and answers
//	POST /api/navigate                {"type":"advance","option":"local"}
//	POST /api/check                   re-enter the wizard from the first screen
//	PUT  /api/answers                 partial answers merged onto the session
//	GET  /api/screens                 every screen with its title
//	GET  /api/render/homeserver       homeserver.yaml (422 with errors when incomplete)
//	GET  /api/render/reverse-proxy    reverse proxy snippet
//	GET  /api/render/delegation       .well-known bodies or SRV record
//	GET  /ws                          WebSocket state feed
//
// Malformed requests get 400 with {"error": "..."}. Advancing past a screen
// whose answers do not validate gets 422 with the offending field.
//
// # WebSocket
//
// A client receives {"type":"state","state":{...}} on connect and after every
// change made by any client. It may send
//
//	{"type":"navigate","action":{"type":"back"}}
//	{"type":"check"}
//
// Failures are reported to the sender only as {"type":"error","error":"..."}.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{
//	    Port:        8888,
//	    SessionName: "home",
//	    Announce:    true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # TLS
//
// When a certificate and key are given the listener is wrapped in TLS 1.2 or
// newer; otherwise the server speaks plain HTTP and should only be bound to a
// trusted interface.
package server
