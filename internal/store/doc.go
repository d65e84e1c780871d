// Package store records bit heap generation runs in SQLite.
//
// The store is an append-only log of runs. Every run gets a UUIDv7 ID and a
// logical sequence number assigned inside the insert transaction; listings
// are ordered by seq, never by wall time. The compressor histogram of each
// run is kept in its own table so that runs can be queried by compressor
// kind. Generated VHDL is stored zstd-compressed.
//
// # Database Configuration
//
// Connections are opened in WAL mode with synchronous=NORMAL, a 5s busy
// timeout and foreign keys enforced. A database records the schema version
// in user_version and the IR version in store_meta; Open refuses a file
// stamped with other versions, since its hashes would not match.
//
// Heap and plan hashes are computed by internal/ir from canonical JSON.
package store
