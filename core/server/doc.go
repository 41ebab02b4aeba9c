// Package server holds the configuration for the webhook HTTP server.
//
// The server itself is assembled in the serve command from the Fiber app,
// the middleware stack and the webhook feature; this package only carries
// the settings shared between them.
package server
