// Package gmail provides a small client for the Gmail API, covering what
// triage needs: looking up message metadata and listing messages matching a
// search query.
//
// Clients are bound to one account and authorize through a
// google.TokenProvider. Every API call is traced and, when a recorder is
// attached, counted in the Google API metrics.
//
// Example usage:
//
//	client, err := gmail.NewClientForAccount(ctx, auth, "work")
//	if err != nil {
//	    return err
//	}
//	msgs, err := client.ListMessages(ctx, "in:inbox is:unread", 10)
package gmail
