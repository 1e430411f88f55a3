// Package session runs the matrix on a platform adapter.
//
// A Session owns one matrix per account. It loads the persisted blob when
// opened, serializes every call with a mutex and writes the whole blob back
// after each successful mutation. Users are notified through the adapter
// when items are added, moved or cleared.
package session
