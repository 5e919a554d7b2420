// Package cache provides in-memory LRU caching for blob blocks.
//
// LRUBlockCache is a single-lock LRU bounded in bytes. ShardedLRUBlockCache
// spreads keys over 64 LRU shards to reduce contention when many goroutines
// fetch ranges at once.
//
// Both charge cached bytes to an optional resource.Controller and refuse to
// cache a block the controller cannot admit, so a cache never pushes the
// process over its memory budget.
package cache
