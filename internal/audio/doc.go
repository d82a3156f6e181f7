// Package audio implements the companion sound effect service.
//
// The service answers star sound triggers with the effect to play, enforcing
// a per-user cooldown, and reports the current background music track. Every
// accepted trigger is appended to an event log.
//
// The main components are:
//
//   - [Cooldown]: TTL key set used as a per-user rate limiter
//   - [EventLog]: Append-only log of audio events, backed by SQLite in [SQLiteLog]
//   - [Service]: Trigger and music logic independent of HTTP
//   - [Server]: HTTP server exposing the service under /api/audio
package audio
