package pager

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

const (
	wwwAuthHeader = "Www-Authenticate"
	authzHeader   = "Authorization"
)

// challengeTransport answers a registry's Bearer challenge by fetching
// a token from the advertised realm and retrying the request.
// Tokens are cached per scope. A request reuses the token of the scope its
// URL was last challenged for. A 401 to a request that already carried the
// cached token fetches a fresh one.
type challengeTransport struct {
	base http.RoundTripper

	mu sync.Mutex
	// scope -> token
	tokens map[string]string
	// host+path -> scope
	scopes map[string]string
}

func challengeKey(req *http.Request) string {
	return req.URL.Host + req.URL.Path
}

func (t *challengeTransport) scopeToken(scope string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tokens[scope]
}

func (t *challengeTransport) getToken(req *http.Request) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	scope, ok := t.scopes[challengeKey(req)]
	if !ok {
		return ""
	}
	return t.tokens[scope]
}

func (t *challengeTransport) setToken(req *http.Request, scope string, token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tokens == nil {
		t.tokens = map[string]string{}
		t.scopes = map[string]string{}
	}
	t.tokens[scope] = token
	t.scopes[challengeKey(req)] = scope
}

func withBearer(req *http.Request, token string) *http.Request {
	req = req.Clone(req.Context())
	req.Header.Set(authzHeader, "Bearer "+token)
	return req
}

func (t *challengeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	first := req
	sent := t.getToken(req)
	if sent != "" {
		first = withBearer(req, sent)
	}

	resp, err := t.base.RoundTrip(first)
	if err != nil {
		return nil, err
	}
	hdr := resp.Header.Get(wwwAuthHeader)
	// Only bodyless requests can be replayed.
	if resp.StatusCode != http.StatusUnauthorized || hdr == "" || req.Body != nil && req.Body != http.NoBody {
		return resp, nil
	}
	resp.Body.Close()

	c, err := parseChallenge(hdr)
	if err != nil {
		return nil, err
	}

	// Another URL may already hold a token for this scope.
	if cached := t.scopeToken(c.scope); cached != "" && cached != sent {
		resp, err := t.base.RoundTrip(withBearer(req, cached))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.setToken(req, c.scope, cached)
			return resp, nil
		}
		resp.Body.Close()
	}

	token, err := t.fetchToken(req, c)
	if err != nil {
		return nil, err
	}
	t.setToken(req, c.scope, token)

	return t.base.RoundTrip(withBearer(req, token))
}

type bearerChallenge struct {
	realm   string
	service string
	scope   string
}

// authParams splits the comma separated auth-params of a challenge.
// Quoted values may contain commas.
func authParams(s string) (map[string]string, error) {
	params := map[string]string{}
	for {
		s = strings.TrimLeft(s, " \t,")
		if s == "" {
			return params, nil
		}

		key, rest, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid auth param %q", s)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		rest = strings.TrimLeft(rest, " \t")

		var val string
		if strings.HasPrefix(rest, `"`) {
			val, rest, ok = strings.Cut(rest[1:], `"`)
			if !ok {
				return nil, fmt.Errorf("unclosed quote in auth param %q", key)
			}
			rest = strings.TrimLeft(rest, " \t")
			if rest != "" && rest[0] != ',' {
				return nil, fmt.Errorf("expected ',' after auth param %q", key)
			}
		} else {
			val, rest, _ = strings.Cut(rest, ",")
			val = strings.TrimSpace(val)
		}
		params[key] = val
		s = rest
	}
}

func parseChallenge(hdr string) (*bearerChallenge, error) {
	scheme, rest, _ := strings.Cut(hdr, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return nil, fmt.Errorf("unsupported auth type: %s", hdr)
	}

	params, err := authParams(rest)
	if err != nil {
		return nil, err
	}
	c := &bearerChallenge{
		realm:   params["realm"],
		service: params["service"],
		scope:   params["scope"],
	}
	if c.realm == "" {
		return nil, errors.New("realm is empty")
	}
	if c.service == "" {
		return nil, errors.New("service is empty")
	}
	if c.scope == "" {
		return nil, errors.New("scope is empty")
	}
	return c, nil
}

func (t *challengeTransport) fetchToken(orig *http.Request, c *bearerChallenge) (string, error) {
	req, err := http.NewRequestWithContext(orig.Context(), http.MethodGet, c.realm, nil)
	if err != nil {
		return "", err
	}
	q := req.URL.Query()
	q.Add("scope", c.scope)
	q.Add("service", c.service)
	req.URL.RawQuery = q.Encode()

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return "", fmt.Errorf("error sending token req: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP status %s when retrieving token", resp.Status)
	}

	token := struct {
		Token string `json:"token"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}
	if token.Token == "" {
		return "", errors.New("token was empty")
	}
	return token.Token, nil
}
