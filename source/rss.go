package source

import (
	"bytes"
	"context"

	"github.com/devon-mar/nextlinks/pager"
	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

const (
	typeRSS = "rss"
)

type rssConfig struct {
	URL string `cfg:"url" validate:"required,url"`
}

// RSS reads the items of an RSS or Atom feed. Paged feeds that advertise
// their next page in a Link header are followed.
type RSS struct {
	Paging `cfg:",squash"`
}

func (r *RSS) init(logger log.FieldLogger) error {
	r.initPager(logger, nil)
	return nil
}

// NewConfig implements Source
func (*RSS) NewConfig(c map[string]interface{}) (interface{}, error) {
	return newConfig(c, &rssConfig{})
}

// Items implements Source
func (r *RSS) Items(ctx context.Context, config interface{}) (chan *Item, chan error) {
	cfg := config.(*rssConfig)

	fp := gofeed.NewParser()
	return r.items(ctx, cfg.URL, func(page *pager.Page) ([]*Item, error) {
		feed, err := fp.Parse(bytes.NewReader(page.Body))
		if err != nil {
			return nil, err
		}

		items := make([]*Item, 0, len(feed.Items))
		for _, itm := range feed.Items {
			items = append(items, &Item{
				Name: itm.Title,
				URL:  itm.Link,
			})
		}
		return items, nil
	})
}
