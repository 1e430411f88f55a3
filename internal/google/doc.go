// Package google provides OAuth2 authentication and token management for the
// Google APIs inboxmatrix reads from.
//
// Tokens are stored per account as JSON files in the user's cache directory
// (~/.cache/inboxmatrix/google-<account>.token). The TokenProvider interface
// lets the server hand Gmail clients a token source without caring where the
// token came from.
package google
