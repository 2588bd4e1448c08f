// Package ledger keeps an audit trail of engine runs in SQLite.
//
// Every analysis gets a row keyed by request id that moves from processing
// to completed or failed. Rows record the evidence digest so repeated
// submissions of an unchanged file can reuse the stored verdict.
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// to adopt the new schema.
package ledger
