// Package store provides the in-memory star store and its update broker.
//
// This package is internal to Starfield and owns all star state. Every
// mutation is published to subscribers in the same critical section that
// applies it, so a subscriber never observes an event for a change the store
// has not made, and never misses one it has.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub fan-out
//   - [Subscription]: A single subscriber's buffered view of the update stream
//   - [Viewport]: Axis-aligned rectangle used for range queries and filtering
//
// Subscribers receive every update via their own buffered channel. A
// subscriber that falls a full buffer behind is evicted (its channel is
// closed) instead of silently missing updates.
package store
