// Package storage provides the blob stores the matrix is persisted to.
//
// The matrix is always written as one JSON document under one key, so every
// backend only needs whole-value get and set:
//
//   - memory: process-local map, for tests and throwaway sessions
//   - file: one file per key, replaced atomically on every write
//   - sqlite: a single table in a WAL-mode database (modernc.org/sqlite)
//   - valkey: GET/SET against a Valkey or Redis server
//
// Instrumented wraps any backend with metrics and trace spans.
package storage
