// Package levelshare implements the core of the BECT level-sharing backend:
// user identity (registration, login, signed sessions, admin elevation) and
// the publish/delete lifecycle for user-generated levels across a record
// store and an external blob store.
//
// The package is storage-agnostic. Persistence plugs in through the
// Repository interface (see repo/memory and repo/postgres) and binary payloads
// through the BlobStore interface (see storage/memory, storage/fs and
// storage/s3).
package levelshare
