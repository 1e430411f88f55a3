// Package platform defines the host adapters the matrix session runs on.
//
// An Adapter supplies the current item being triaged, persists the matrix
// blob and notifies the user. Two hosts exist: gmail, where the current item
// is a selected Gmail message, and local, where callers set it explicitly.
// Every call made before Initialize returns ErrNotInitialized.
package platform
