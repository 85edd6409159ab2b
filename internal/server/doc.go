// Package server hosts the Fiber HTTP service: request ID and panic recovery
// middleware, the listing pages and the /request proxy endpoints. Handlers
// resolve the credential once per request (header or path segment) and hand
// it to the auth guard, so the guard never needs to know where it came from.
// Keep exports narrow and accept explicit dependencies through AppOptions.
package server
