// Package pager follows rel="next" links of paginated HTTP APIs.
package pager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/devon-mar/nextlinks/utils/linkhdr"
	log "github.com/sirupsen/logrus"
)

const linkHeader = "Link"

var (
	// ErrStop can be returned by a WalkFunc to stop paging without an error.
	ErrStop = errors.New("stop paging")
	// ErrLoop is returned when a next link points to a page that was already visited.
	ErrLoop = errors.New("pagination loop")
)

type Page struct {
	// 1 based.
	Number     int
	URL        *url.URL
	StatusCode int
	Header     http.Header
	Body       []byte
	// All next links of the page, resolved against URL.
	NextLinks []*url.URL
}

// Next returns the link that will be followed or nil on the last page.
func (p *Page) Next() *url.URL {
	if len(p.NextLinks) == 0 {
		return nil
	}
	return p.NextLinks[0]
}

type WalkFunc func(p *Page) error

type Pager struct {
	// http.DefaultClient if nil.
	Client *http.Client
	// Maximum number of pages to fetch. 0 means no limit.
	MaxPages int
	// Added to every request.
	Header http.Header
	Logger log.FieldLogger
}

func (p *Pager) client() *http.Client {
	if p.Client == nil {
		return http.DefaultClient
	}
	return p.Client
}

func (p *Pager) logger() log.FieldLogger {
	if p.Logger == nil {
		return log.StandardLogger()
	}
	return p.Logger
}

// LinkHeader returns all Link header lines of h joined into a single field value.
func LinkHeader(h http.Header) string {
	return strings.Join(h.Values(linkHeader), ", ")
}

// Walk fetches start and then follows the first next link of every page,
// calling fn for each page.
func (p *Pager) Walk(ctx context.Context, start string, fn WalkFunc) error {
	u, err := url.Parse(start)
	if err != nil {
		return fmt.Errorf("error parsing URL %q: %w", start, err)
	}

	seen := map[string]struct{}{}
	for n := 1; u != nil; n++ {
		logger := p.logger().WithFields(log.Fields{"page": n, "url": u.String()})

		if p.MaxPages > 0 && n > p.MaxPages {
			logger.Debug("Maximum number of pages reached.")
			return nil
		}

		key := u.String()
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s was already visited", ErrLoop, key)
		}
		seen[key] = struct{}{}

		page, err := p.fetch(ctx, u)
		if err != nil {
			return err
		}
		page.Number = n

		if len(page.NextLinks) > 1 {
			logger.Debugf("Page has %d next links, following the first.", len(page.NextLinks))
		}
		logger.Debug("Fetched page.")

		if err := fn(page); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
		u = page.Next()
	}
	return nil
}

// Pages is like Walk but sends the pages on a channel.
// Both channels are closed when paging ends; at most one error is sent.
// Cancel ctx to stop early.
func (p *Pager) Pages(ctx context.Context, start string) (chan *Page, chan error) {
	pageChan := make(chan *Page)
	errChan := make(chan error)

	go func() {
		defer close(pageChan)
		defer close(errChan)

		err := p.Walk(ctx, start, func(page *Page) error {
			select {
			case pageChan <- page:
				return nil
			case <-ctx.Done():
				return ErrStop
			}
		})
		if err != nil {
			select {
			case errChan <- err:
			case <-ctx.Done():
			}
		}
	}()
	return pageChan, errChan
}

func (p *Pager) fetch(ctx context.Context, u *url.URL) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error making new request %s: %w", u, err)
	}
	for k, v := range p.Header {
		req.Header[k] = v
	}

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP status %s when retrieving %s", resp.Status, u)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body of %s: %w", u, err)
	}

	page := &Page{
		URL:        u,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}

	next, err := linkhdr.NextStrings(LinkHeader(resp.Header))
	if err != nil {
		return nil, fmt.Errorf("error parsing link header of %s: %w", u, err)
	}
	for _, s := range next {
		ref, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("error parsing link header of %s: %w", u, &linkhdr.InvalidURIError{URI: s, Err: err})
		}
		page.NextLinks = append(page.NextLinks, u.ResolveReference(ref))
	}
	return page, nil
}

// NextPageNumber returns the value of the query parameter param of the first
// next link in linkHdr, or 0 if there is no next link.
func NextPageNumber(linkHdr string, param string) (int, error) {
	next, err := linkhdr.FirstNext(linkHdr)
	if err != nil {
		return 0, err
	}
	if next == nil {
		return 0, nil
	}

	v := next.Query().Get(param)
	if v == "" {
		return 0, fmt.Errorf("next link %s has no %q parameter", next, param)
	}
	page, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid page number in next link %s: %w", next, err)
	}
	return page, nil
}
