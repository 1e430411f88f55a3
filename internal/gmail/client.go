package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/inboxmatrix/internal/google"
	"github.com/teemow/inboxmatrix/internal/instrumentation"
)

const (
	// DefaultListLimit is used when ListMessages is called without a limit.
	DefaultListLimit = 10
	// MaxListLimit caps ListMessages.
	MaxListLimit = 500

	maxPageSize = 100
	userID      = "me"
)

// ErrMessageNotFound is returned when Gmail has no message with the given id.
var ErrMessageNotFound = errors.New("gmail: message not found")

// Recorder receives one observation per Gmail API call.
// *instrumentation.Metrics satisfies it.
type Recorder interface {
	RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration)
}

// Client wraps the Gmail Users service for one account.
type Client struct {
	svc      *gmail.UsersService
	account  string
	recorder Recorder
}

// NewClient creates a client from Gmail service options, e.g.
// option.WithHTTPClient.
func NewClient(ctx context.Context, account string, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users, account: account}, nil
}

// NewClientForAccount creates a client authorized through provider.
func NewClientForAccount(ctx context.Context, provider google.TokenProvider, account string) (*Client, error) {
	if !provider.HasTokenForAccount(account) {
		return nil, errors.New(google.AuthenticationErrorMessage(account))
	}
	httpClient, err := google.HTTPClient(ctx, provider, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s: %w", account, err)
	}
	return NewClient(ctx, account, option.WithHTTPClient(httpClient))
}

// WithRecorder attaches a metrics recorder and returns c.
func (c *Client) WithRecorder(r Recorder) *Client {
	c.recorder = r
	return c
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

func (c *Client) observe(ctx context.Context, operation string, start time.Time, err error) {
	if c.recorder == nil {
		return
	}
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.recorder.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, time.Since(start))
}

// GetMessage fetches the Subject/From/Date metadata of one message.
func (c *Client) GetMessage(ctx context.Context, id string) (*MessageInfo, error) {
	if id == "" {
		return nil, errors.New("message id is required")
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "messages.get")
	defer span.End()
	start := time.Now()

	msg, err := c.svc.Messages.Get(userID, id).
		Format("metadata").
		MetadataHeaders("Subject", "From", "Date").
		Context(ctx).
		Do()
	c.observe(ctx, "messages.get", start, err)
	instrumentation.SetSpanError(span, err)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
		}
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return messageInfo(msg), nil
}

// ListMessages returns up to limit messages matching query, newest first as
// Gmail orders them. Pages are fetched until the limit is reached.
func (c *Client) ListMessages(ctx context.Context, query string, limit int64) ([]*MessageInfo, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	ids, err := c.listMessageIDs(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	infos := make([]*MessageInfo, 0, len(ids))
	for _, id := range ids {
		info, err := c.GetMessage(ctx, id)
		if errors.Is(err, ErrMessageNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (c *Client) listMessageIDs(ctx context.Context, query string, limit int64) ([]string, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "messages.list")
	defer span.End()
	start := time.Now()

	var ids []string
	pageToken := ""
	var err error
	for {
		remaining := limit - int64(len(ids))
		if remaining <= 0 {
			break
		}
		pageSize := min(remaining, maxPageSize)

		req := c.svc.Messages.List(userID).MaxResults(pageSize).Context(ctx)
		if query != "" {
			req = req.Q(query)
		}
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		var res *gmail.ListMessagesResponse
		res, err = req.Do()
		if err != nil {
			break
		}
		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	c.observe(ctx, "messages.list", start, err)
	instrumentation.SetSpanError(span, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if int64(len(ids)) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
