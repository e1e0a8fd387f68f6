// Package relay implements the per-connection session engine and the
// bidirectional frame forwarder.
//
// A session starts when a client completes the WebSocket upgrade. In
// in-band mode the client's first message must be a JSON authentication
// request naming a token and a target URL:
//
//	{"token": "secret", "target": "wss://backend.example/ws"}
//
// The engine validates the token against the current configuration
// snapshot, dials the target, reports {"status":"已连接"} and then relays
// frames in both directions until either side closes or the idle timeout
// fires. Failures are reported with a single {"error": ...} frame.
//
// In header mode the upgrade request itself carries X-Target-URL and a
// token (X-Token header or token query parameter). Authentication happens
// before the upgrade and no protocol frames are exchanged.
//
// Forward can be used on its own with any pair of connections that
// satisfy Conn, such as two *websocket.Conn.
package relay
