package pager

import (
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"golang.org/x/oauth2"
)

const defaultTimeout = 10 * time.Second

// ClientOptions configures the HTTP client used to fetch pages.
type ClientOptions struct {
	// Static bearer token.
	Token   string        `cfg:"token"`
	Timeout time.Duration `cfg:"timeout" validate:"gte=0"`
	// Cache responses in memory.
	Cache bool `cfg:"cache"`
	// Cache responses on disk. Takes precedence over Cache.
	CacheDir string `cfg:"cache_dir"`
	// Answer container registry style Bearer challenges.
	// Ignored when Token is set.
	Challenge bool `cfg:"-"`
}

// NewTransport returns the round tripper described by opts,
// without any authentication.
func NewTransport(opts ClientOptions) http.RoundTripper {
	var tr http.RoundTripper = http.DefaultTransport

	var cache httpcache.Cache
	if opts.CacheDir != "" {
		cache = diskcache.New(opts.CacheDir)
	} else if opts.Cache {
		cache = httpcache.NewMemoryCache()
	}
	if cache != nil {
		ct := httpcache.NewTransport(cache)
		ct.Transport = tr
		tr = ct
	}
	return tr
}

func NewClient(opts ClientOptions) *http.Client {
	tr := NewTransport(opts)

	if opts.Token != "" {
		tr = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   tr,
		}
	} else if opts.Challenge {
		tr = &challengeTransport{base: tr}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Transport: tr, Timeout: timeout}
}
