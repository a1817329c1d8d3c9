package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// TokenSource adapts the manager to golang.org/x/oauth2 so the session can
// back any oauth2-aware HTTP stack. Expired tokens trigger a (coalesced)
// refresh before being returned.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return &managerTokenSource{m: m}
}

type managerTokenSource struct {
	m *Manager
}

func (ts *managerTokenSource) Token() (*oauth2.Token, error) {
	s := ts.m.Session()
	if !s.LoggedIn() {
		return nil, errors.New("[TokenSource] not logged in")
	}

	if s.UserInfo != nil && s.UserInfo.Exp > 0 && !time.Unix(s.UserInfo.Exp, 0).After(ts.m.now()) {
		access, err := ts.m.RefreshAccessToken(context.Background())
		if err != nil {
			return nil, errors.Wrap(err, "[TokenSource] RefreshAccessToken")
		}
		return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
	}

	token := &oauth2.Token{AccessToken: s.AccessToken, TokenType: "Bearer"}
	if s.UserInfo != nil && s.UserInfo.Exp > 0 {
		token.Expiry = time.Unix(s.UserInfo.Exp, 0)
	}
	return token, nil
}
