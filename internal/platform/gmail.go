package platform

import (
	"context"
	"errors"

	"github.com/teemow/inboxmatrix/internal/logging"
	"github.com/teemow/inboxmatrix/internal/matrix"
)

// GmailAdapter takes the current item from the Gmail message the user
// selected. The selection is persisted next to the matrix so it survives
// restarts.
type GmailAdapter struct {
	base
	messages MessageSource
	account  string
}

// NewGmailAdapter creates an uninitialized Gmail adapter.
func NewGmailAdapter(deps Deps) *GmailAdapter {
	a := &GmailAdapter{
		messages: deps.Messages,
		account:  deps.Account,
	}
	a.setup(NameGmail, deps)
	if deps.Account != "" {
		a.logger = a.logger.With(logging.Account(deps.Account))
	}
	return a
}

// Initialize implements Adapter.
func (a *GmailAdapter) Initialize(ctx context.Context) error {
	if a.messages == nil {
		return errors.New("platform: gmail adapter requires a message source")
	}
	return a.initialize(ctx)
}

func (a *GmailAdapter) selectionKey() string {
	if a.account == "" || a.account == "default" {
		return CurrentMessageKey
	}
	return CurrentMessageKey + ":" + a.account
}

// SelectMessage marks id as the message being triaged.
func (a *GmailAdapter) SelectMessage(ctx context.Context, id string) error {
	if err := a.checkReady(); err != nil {
		return err
	}
	if id == "" {
		return errors.New("message id is required")
	}
	if err := a.store.Set(ctx, a.selectionKey(), id); err != nil {
		return err
	}
	a.logger.Debug("message selected", logging.ItemID(id))
	return nil
}

// SelectedMessageID returns the selected message id, if any.
func (a *GmailAdapter) SelectedMessageID(ctx context.Context) (string, bool, error) {
	if err := a.checkReady(); err != nil {
		return "", false, err
	}
	id, found, err := a.store.Get(ctx, a.selectionKey())
	if err != nil || !found || id == "" {
		return "", false, err
	}
	return id, true, nil
}

// CurrentItem implements Adapter. A message that can no longer be looked up
// is reported as absent.
func (a *GmailAdapter) CurrentItem(ctx context.Context) (matrix.Item, bool, error) {
	id, found, err := a.SelectedMessageID(ctx)
	if err != nil || !found {
		return matrix.Item{}, false, err
	}

	info, err := a.messages.GetMessage(ctx, id)
	if err != nil {
		a.logger.Warn("failed to look up selected message", logging.ItemID(id), logging.Err(err))
		return matrix.Item{}, false, nil
	}
	return info.Item(), true, nil
}

// Notify implements Adapter.
func (a *GmailAdapter) Notify(_ context.Context, message string) error {
	if err := a.checkReady(); err != nil {
		return err
	}
	a.record(message)
	a.logger.Info("notification")
	return nil
}
