package platform

import (
	"context"
	"fmt"

	"resume-analyzer/domain"
)

type Auth struct {
	c *Client
}

func (a *Auth) IsAuthenticated() bool {
	return a.c.State() == Authenticated
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (a *Auth) CurrentUser() *domain.User {
	a.c.mu.RLock()
	defer a.c.mu.RUnlock()
	if a.c.user == nil {
		return nil
	}
	u := *a.c.user
	return &u
}

func (a *Auth) SignIn(ctx context.Context) bool {
	if !a.c.begin(ctx, "auth") {
		return false
	}
	defer a.c.endOp()

	user, err := a.c.backends.Session.SignIn(ctx)
	if err != nil {
		a.c.fail(ctx, "auth", fmt.Errorf("failed to sign in: %w", err))
		return false
	}
	a.c.setUser(user)
	return user != nil
}

func (a *Auth) SignOut(ctx context.Context) bool {
	if !a.c.begin(ctx, "auth") {
		return false
	}
	defer a.c.endOp()

	if err := a.c.backends.Session.SignOut(ctx); err != nil {
		a.c.fail(ctx, "auth", fmt.Errorf("failed to sign out: %w", err))
		return false
	}
	a.c.setUser(nil)
	return true
}

// Refresh reloads the current user from the session provider.
func (a *Auth) Refresh(ctx context.Context) bool {
	if !a.c.begin(ctx, "auth") {
		return false
	}
	defer a.c.endOp()

	user, err := a.c.backends.Session.Status(ctx)
	if err != nil {
		a.c.fail(ctx, "auth", fmt.Errorf("failed to refresh user: %w", err))
		return false
	}
	a.c.setUser(user)
	return true
}

// CheckStatus refreshes the session and reports whether a user is signed in.
func (a *Auth) CheckStatus(ctx context.Context) bool {
	if !a.Refresh(ctx) {
		return false
	}
	return a.IsAuthenticated()
}
