// Package proxy orchestrates the cache-or-fetch flow: look up a fresh record,
// otherwise fetch the origin once and store the result. The fetch lock policy
// decides how much traffic a single origin round-trip blocks; every policy
// keeps at most one fetch in flight per URL.
package proxy
