package cache

import "strings"

// GlobalKeyPrefix namespaces every key this application writes so a shared
// redis instance can be flushed selectively.
const GlobalKeyPrefix = "mindmetric"

// Key building blocks for the cache domains in use.
const (
	SessionStatePrefix  = "session:state"
	SessionResultPrefix = "session:result"
)

// GenerateCacheKey joins parts with ':' under the global prefix.
// GenerateCacheKey("session:state", id) -> "mindmetric:session:state:<id>"
func GenerateCacheKey(parts ...string) string {
	all := make([]string, 0, len(parts)+1)
	all = append(all, GlobalKeyPrefix)
	all = append(all, parts...)
	return strings.Join(all, ":")
}

// SessionStateKey returns the cache key holding the live state of a session.
func SessionStateKey(sessionID string) string {
	return GenerateCacheKey(SessionStatePrefix, sessionID)
}

// SessionResultKey returns the cache key holding the computed result of a
// completed session.
func SessionResultKey(sessionID string) string {
	return GenerateCacheKey(SessionResultPrefix, sessionID)
}
