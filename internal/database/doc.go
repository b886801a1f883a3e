// Package database provides the PostgreSQL connection pool for the event
// journal. The tracker keeps all hot state in memory; Postgres only holds
// the append-only position_events history.
package database
