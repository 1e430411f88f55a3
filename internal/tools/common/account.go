package common

import (
	"context"

	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/session"
)

// GetAccountFromArgs returns the "account" argument, or "" when it is
// missing or not a string.
func GetAccountFromArgs(args map[string]any) string {
	if accountVal, ok := args["account"].(string); ok {
		return accountVal
	}
	return ""
}

// ResolveAccount returns the validated account for args, falling back to
// the server's default account.
func ResolveAccount(sc *server.ServerContext, args map[string]any) (string, error) {
	return sc.ResolveAccount(GetAccountFromArgs(args))
}

// SessionFromArgs returns the matrix session of the account named in args.
func SessionFromArgs(ctx context.Context, sc *server.ServerContext, args map[string]any) (*session.Session, error) {
	account, err := ResolveAccount(sc, args)
	if err != nil {
		return nil, err
	}
	return sc.Session(ctx, account)
}
