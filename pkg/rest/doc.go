// Package rest forwards one-shot HTTP requests for clients that already
// hold a relay token.
//
// A request to the REST path carries its destination in the X-Target-URL
// header and its token in X-Token (or the token query parameter). The
// Forwarder strips hop-by-hop and authentication headers, sends the request
// through a pooled HTTP/2-capable client and returns the upstream status,
// body and Content-Type. No other upstream headers are passed back.
//
// Errors are plain text:
//
//	401  missing or unknown token
//	400  missing or invalid X-Target-URL, unreadable body
//	413  body larger than rest.max_body_bytes
//	502  upstream unreachable or its response could not be read
package rest
