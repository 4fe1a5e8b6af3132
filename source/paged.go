package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/devon-mar/nextlinks/pager"
	log "github.com/sirupsen/logrus"
)

// Paging is embedded by sources that follow Link headers themselves.
type Paging struct {
	pager.ClientOptions `cfg:",squash"`
	MaxPages            int `cfg:"max_pages" validate:"gte=0"`
	Limit               int `cfg:"limit" validate:"gte=0"`

	pager *pager.Pager
}

func (p *Paging) initPager(logger log.FieldLogger, hdr map[string]string) {
	h := make(http.Header, len(hdr))
	for k, v := range hdr {
		h.Set(k, v)
	}
	p.pager = &pager.Pager{
		Client:   pager.NewClient(p.ClientOptions),
		MaxPages: p.MaxPages,
		Header:   h,
		Logger:   logger,
	}
}

type pageParser func(page *pager.Page) ([]*Item, error)

// items walks every page starting at start and sends the items parse
// finds on each page.
func (p *Paging) items(ctx context.Context, start string, parse pageParser) (chan *Item, chan error) {
	itemChan := make(chan *Item)
	errChan := make(chan error)

	go func() {
		defer close(itemChan)
		defer close(errChan)

		err := p.pager.Walk(ctx, start, func(page *pager.Page) error {
			items, err := parse(page)
			if err != nil {
				return fmt.Errorf("error parsing page %s: %w", page.URL, err)
			}
			for _, it := range items {
				it.Page = page.URL.String()
				if !sendItem(ctx, itemChan, it) {
					return pager.ErrStop
				}
			}
			return nil
		})
		if err != nil {
			sendErr(ctx, errChan, err)
		}
	}()

	return limit(ctx, itemChan, errChan, p.Limit)
}
