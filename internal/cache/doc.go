// Package cache holds the in-memory store that maps an origin URL to the last
// body fetched for it. The store lives for the whole process, is guarded by a
// single mutex and never persists anything. Freshness is decided per lookup
// from the caller-supplied max age; stale records stay in the map until a
// successful re-fetch replaces them.
package cache
