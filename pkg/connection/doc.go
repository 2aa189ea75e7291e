// Package connection resolves which database a call should run against.
//
// A connection string supplied for the current request (a dynamic
// credential) always wins and is never cached. Without one, the statically
// configured DATABASE_URL is read once and backs a single process-wide
// client.
package connection
