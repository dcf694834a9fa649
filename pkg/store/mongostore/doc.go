// Package mongostore persists machine states as MongoDB documents using
// go.mongodb.org/mongo-driver/v2.
//
// Every target is one document in a shared collection, identified by
// "<machine>:<id>". Writes filter on the origin state so a document that
// moved on since it was read is left untouched and the transition halts.
package mongostore
