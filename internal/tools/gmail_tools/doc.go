// Package gmail_tools provides the MCP tools that find Gmail messages to
// triage and select the message the matrix tools act on.
//
//   - gmail_list_messages: list messages matching a Gmail search query,
//     with the quadrant each one is already filed in
//   - gmail_get_message: the subject, sender and date of one message
//   - gmail_select_message: make a message current for matrix_add_current
//
// Messages are read with the gmail.readonly scope; nothing in the mailbox
// is modified.
//
// Example:
//
//	gmail_list_messages(query: "in:inbox is:unread", maxResults: 20)
//	gmail_select_message(messageId: "18c2f...")
//	matrix_add_current(quadrant: 1)
package gmail_tools
