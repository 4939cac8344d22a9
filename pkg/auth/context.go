package auth

import (
	"context"
)

// Context keys for authentication data
type contextKey string

// ContextKeyWallet is the context key for the authenticated wallet address
const ContextKeyWallet contextKey = "wallet"

// WithWallet adds the wallet address to the context
func WithWallet(ctx context.Context, wallet string) context.Context {
	return context.WithValue(ctx, ContextKeyWallet, wallet)
}

// WalletFromContext retrieves the wallet address from the context
func WalletFromContext(ctx context.Context) (string, bool) {
	wallet, ok := ctx.Value(ContextKeyWallet).(string)
	return wallet, ok
}
