// Package redisstore persists machine states as Redis string keys using
// github.com/redis/go-redis/v9.
//
// Each target maps to one key. State writes run a small Lua script that
// compares the stored value with the transition origin before setting the
// destination, so concurrent events on the same target never both apply.
// Redis has no transaction spanning the callbacks; a failure after the write
// is undone by RevertState with the reverse compare-and-set.
package redisstore
