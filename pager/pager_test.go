package pager

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devon-mar/nextlinks/utils/linkhdr"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func newTestServer() *httptest.Server {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path + "?" + r.URL.RawQuery {
		case "/items?page=1":
			w.Header().Add("Link", `</items?page=2>; rel="next", </items?page=3>; rel="last"`)
			_, _ = w.Write([]byte("one"))
		case "/items?page=2":
			// absolute link split over two header lines
			w.Header().Add("Link", `</items?page=1>; rel="prev"`)
			w.Header().Add("Link", fmt.Sprintf(`<%s/items?page=3>; rel="next"`, ts.URL))
			_, _ = w.Write([]byte("two"))
		case "/items?page=3":
			w.Header().Add("Link", `</items?page=2>; rel="prev", </items?page=1>; rel="first"`)
			_, _ = w.Write([]byte("three"))
		case "/loop?":
			w.Header().Add("Link", `<loop>; rel=next`)
		case "/invalid?":
			w.Header().Add("Link", `<loop> rel=next`)
		case "/baduri?":
			w.Header().Add("Link", `<:::example.com>; rel=next`)
		case "/secret?":
			if r.Header.Get(authzHeader) != "Bearer abc" {
				http.Error(w, "", http.StatusUnauthorized)
				return
			}
			w.Header().Add("Link", `</secret2>; rel=next`)
		case "/secret2?":
			if r.Header.Get(authzHeader) != "Bearer abc" {
				http.Error(w, "", http.StatusUnauthorized)
				return
			}
		case "/header?":
			if r.Header.Get("Accept") != "application/json" {
				http.Error(w, "", http.StatusBadRequest)
			}
		default:
			http.Error(w, "", http.StatusNotFound)
		}
	}))
	return ts
}

func TestWalk(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	tests := map[string]struct {
		start     string
		maxPages  int
		client    *http.Client
		header    http.Header
		wantPages []string
		wantBody  []string
		wantErr   error
		wantAnErr bool
	}{
		"all pages": {
			start:     "/items?page=1",
			wantPages: []string{"/items?page=1", "/items?page=2", "/items?page=3"},
			wantBody:  []string{"one", "two", "three"},
		},
		"max pages": {
			start:     "/items?page=1",
			maxPages:  2,
			wantPages: []string{"/items?page=1", "/items?page=2"},
			wantBody:  []string{"one", "two"},
		},
		"last page": {
			start:     "/items?page=3",
			wantPages: []string{"/items?page=3"},
			wantBody:  []string{"three"},
		},
		"loop": {
			start:     "/loop",
			wantPages: []string{"/loop"},
			wantBody:  []string{""},
			wantErr:   ErrLoop,
		},
		"invalid link header": {
			start:   "/invalid",
			wantErr: linkhdr.ErrExpectedSeparatorOrTermination,
		},
		"unparsable next link": {
			start:     "/baduri",
			wantAnErr: true,
		},
		"not found": {
			start:     "/notfound",
			wantAnErr: true,
		},
		"token": {
			start:     "/secret",
			client:    NewClient(ClientOptions{Token: "abc"}),
			wantPages: []string{"/secret", "/secret2"},
			wantBody:  []string{"", ""},
		},
		"no token": {
			start:     "/secret",
			wantAnErr: true,
		},
		"header": {
			start:     "/header",
			header:    http.Header{"Accept": []string{"application/json"}},
			wantPages: []string{"/header"},
			wantBody:  []string{""},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := &Pager{Client: tc.client, MaxPages: tc.maxPages, Header: tc.header}

			var pages, bodies []string
			err := p.Walk(context.Background(), ts.URL+tc.start, func(page *Page) error {
				if page.Number != len(pages)+1 {
					t.Errorf("got page number %d, want %d", page.Number, len(pages)+1)
				}
				pages = append(pages, page.URL.RequestURI())
				bodies = append(bodies, string(page.Body))
				return nil
			})

			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("got error %v, want %v", err, tc.wantErr)
				}
			case tc.wantAnErr:
				if err == nil {
					t.Errorf("expected an error")
				}
			case err != nil:
				t.Errorf("expected no error but got: %v", err)
			}

			if diff := cmp.Diff(tc.wantPages, pages); diff != "" {
				t.Errorf("unexpected pages (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantBody, bodies); diff != "" {
				t.Errorf("unexpected bodies (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWalkStop(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	var n int
	err := (&Pager{}).Walk(context.Background(), ts.URL+"/items?page=1", func(page *Page) error {
		n++
		return ErrStop
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d pages, want 1", n)
	}
}

func TestWalkNextLinks(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	err := (&Pager{}).Walk(context.Background(), ts.URL+"/items?page=1", func(page *Page) error {
		if want := ts.URL + "/items?page=2"; page.Next().String() != want {
			t.Errorf("got next %s, want %s", page.Next(), want)
		}
		return ErrStop
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
}

func TestPages(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)

	ts := newTestServer()
	defer ts.Close()

	t.Run("all", func(t *testing.T) {
		pageChan, errChan := (&Pager{}).Pages(context.Background(), ts.URL+"/items?page=1")
		var have []string
	outer:
		for i := 0; i < 20; i++ {
			select {
			case p, ok := <-pageChan:
				if !ok {
					break outer
				}
				have = append(have, string(p.Body))
			case err, ok := <-errChan:
				if !ok {
					break outer
				}
				t.Errorf("unexpected error: %v", err)
				break outer
			}
		}
		if diff := cmp.Diff([]string{"one", "two", "three"}, have); diff != "" {
			t.Errorf("unexpected pages (-want +got):\n%s", diff)
		}
	})

	t.Run("error", func(t *testing.T) {
		pageChan, errChan := (&Pager{}).Pages(context.Background(), ts.URL+"/notfound")
		select {
		case p, ok := <-pageChan:
			if ok {
				t.Errorf("unexpected page %v", p.URL)
			}
		case err := <-errChan:
			if err == nil {
				t.Errorf("expected an error")
			}
		}
	})

	t.Run("cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		pageChan, _ := (&Pager{}).Pages(ctx, ts.URL+"/items?page=1")
		if p := <-pageChan; p == nil || string(p.Body) != "one" {
			t.Fatalf("expected the first page")
		}
		// Abandon the channels, the producer must still exit.
		cancel()
	})
}

func TestNextPageNumber(t *testing.T) {
	tests := map[string]struct {
		linkHdr   string
		want      int
		wantAnErr bool
	}{
		"first page": {
			linkHdr: `<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=2&state=all>; rel="next",<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=20&state=all>; rel="last"`,
			want:    2,
		},
		"last page": {
			linkHdr: `<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=1&state=all>; rel="first",<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=19&state=all>; rel="prev"`,
		},
		"empty": {},
		"no page param": {
			linkHdr:   `<https://example.com/issues?cursor=abc>; rel="next"`,
			wantAnErr: true,
		},
		"invalid page": {
			linkHdr:   `<https://example.com/issues?page=abc>; rel="next"`,
			wantAnErr: true,
		},
		"invalid header": {
			linkHdr:   `https://example.com/issues?page=2; rel="next"`,
			wantAnErr: true,
		},
		"relative next link": {
			linkHdr:   `</issues?page=2>; rel="next"`,
			wantAnErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			have, err := NextPageNumber(tc.linkHdr, "page")
			if err == nil && tc.wantAnErr {
				t.Errorf("expected an error")
			} else if err != nil && !tc.wantAnErr {
				t.Errorf("expected no error but got: %v", err)
			}
			if have != tc.want {
				t.Errorf("got %d, want %d", have, tc.want)
			}
		})
	}
}
