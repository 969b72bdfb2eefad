package gateway

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/energystats/foxgate/pkg/log"
)

type loginResult struct {
	Token string `json:"token"`
}

// HashPassword returns the lowercase hex MD5 of password as the vendor
// expects it on login.
func HashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Login exchanges username and password for a token and stores both the
// credentials and the token.
func (n *Network) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return &Error{Kind: KindBadCredentials}
	}
	hashed := HashPassword(password)
	token, err := n.login(ctx, username, hashed)
	if err != nil {
		return err
	}
	if err := n.store.SetCredentials(ctx, username, hashed); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	if err := n.store.SetToken(ctx, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	log.Ctx(ctx).InfoContext(ctx, "logged in", slog.String("username", username))
	return nil
}

// login performs the login exchange without touching the store.
func (n *Network) login(ctx context.Context, username, md5Password string) (string, error) {
	req := newPostRequest(pathLogin, map[string]string{
		"user":     username,
		"password": md5Password,
	})
	var res loginResult
	err := n.send(ctx, req, "", &res)
	if err == nil && res.Token == "" {
		err = &Error{Kind: KindMissingData, Message: "login returned no token"}
	}
	metricLogins.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "login failed", slog.String("username", username), slog.Any("error", err))
		return "", err
	}
	return res.Token, nil
}

// Logout forgets the token, the credentials and the demo flag.
func (n *Network) Logout(ctx context.Context) error {
	if err := n.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	log.Ctx(ctx).InfoContext(ctx, "logged out")
	return nil
}

// do sends req with the stored token. When the vendor rejects the token the
// session is re-established and the request is retried exactly once.
func (n *Network) do(ctx context.Context, req Request, dest any) error {
	token, err := n.ensureToken(ctx)
	if err != nil {
		return err
	}

	err = n.send(ctx, req, token, dest)
	if !IsKind(err, KindInvalidToken) {
		return err
	}

	log.Ctx(ctx).InfoContext(ctx, "token rejected, logging in again", slog.String("path", req.Path))
	token, lerr := n.relogin(ctx, token)
	if lerr != nil {
		if IsKind(lerr, KindMissingData) {
			// nothing to log in with, report the original rejection
			return err
		}
		return lerr
	}
	return n.send(ctx, req, token, dest)
}

// ensureToken returns the stored token, logging in first when there is no
// token but credentials are stored. An empty token with no credentials is
// not an error; the request goes out unauthenticated.
func (n *Network) ensureToken(ctx context.Context) (string, error) {
	creds, err := n.store.Credentials(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}
	if creds.Token != "" || creds.Username == "" || creds.MD5Password == "" {
		return creds.Token, nil
	}
	return n.relogin(ctx, "")
}

// relogin replaces the token that was rejected. Concurrent callers rejected
// with the same token share a single login exchange, and a caller that finds
// the token already replaced by someone else reuses it.
func (n *Network) relogin(ctx context.Context, rejected string) (string, error) {
	v, err, _ := n.logins.Do("login|"+rejected, func() (any, error) {
		// the login outlives whichever caller started it
		ctx := context.WithoutCancel(ctx)

		creds, err := n.store.Credentials(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read credentials: %w", err)
		}
		if creds.Token != "" && creds.Token != rejected {
			return creds.Token, nil
		}
		if creds.Token != "" {
			if err := n.store.ClearToken(ctx); err != nil {
				return "", fmt.Errorf("failed to clear token: %w", err)
			}
		}
		if creds.Username == "" || creds.MD5Password == "" {
			return "", &Error{Kind: KindMissingData, Message: "no stored credentials"}
		}

		token, err := n.login(ctx, creds.Username, creds.MD5Password)
		if err != nil {
			return "", err
		}
		if err := n.store.SetToken(ctx, token); err != nil {
			return "", fmt.Errorf("failed to store token: %w", err)
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
