// wsrelay is a TLS-terminating WebSocket relay.
//
// Clients connect over wss, authenticate with a pre-shared token and name a
// target WebSocket URL; wsrelay dials the target and relays frames in both
// directions until either side closes or the idle timeout fires.
//
// Usage:
//
//	# Start the relay
//	wsrelay run --config /etc/wsrelay/config.yaml
//
//	# Ask the running relay to reload its configuration
//	wsrelay reload --config /etc/wsrelay/config.yaml
//
//	# Check a configuration file
//	wsrelay validate --config config.yaml
//
//	# Query the session journal
//	wsrelay sessions --user alice --since 24h --format json
package main

func main() {
	Execute()
}
