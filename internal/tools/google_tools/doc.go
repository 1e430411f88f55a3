// Package google_tools provides the MCP tools that authorize a Google
// account for the Gmail platform.
//
// The OAuth flow:
//  1. Call google_get_auth_url to get the authorization URL
//  2. The user visits the URL and grants read-only Gmail access
//  3. Call google_save_auth_code with the code the user copied
//
// The token is stored per account and refreshed automatically.
package google_tools
