package source

import (
	"context"
	"fmt"

	"code.gitea.io/sdk/gitea"
	"github.com/devon-mar/nextlinks/pager"
	"github.com/devon-mar/nextlinks/utils/giteautil"
	log "github.com/sirupsen/logrus"
)

const (
	typeGiteaTags = "gitea_tags"

	// The default page size
	// https://docs.gitea.io/en-us/config-cheat-sheet/
	giteaDefaultPageSize = 30
)

type giteaConfig struct {
	Owner string `cfg:"owner" validate:"required"`
	Repo  string `cfg:"repo" validate:"required"`
}

type GiteaTags struct {
	giteautil.ClientOptions `cfg:",squash"`
	Cache                   bool   `cfg:"cache"`
	CacheDir                string `cfg:"cache_dir"`
	PageSize                int    `cfg:"page_size" validate:"omitempty,gte=0"`
	Limit                   int    `cfg:"limit" validate:"gte=0"`

	client *gitea.Client
	logger log.FieldLogger
}

func (g *GiteaTags) init(logger log.FieldLogger) error {
	if g.PageSize == 0 {
		g.PageSize = giteaDefaultPageSize
	}
	g.logger = logger

	httpClient := pager.NewClient(pager.ClientOptions{Cache: g.Cache, CacheDir: g.CacheDir})

	var err error
	g.client, err = giteautil.NewClient(g.ClientOptions, httpClient)
	return err
}

// NewConfig implements Source
func (*GiteaTags) NewConfig(c map[string]interface{}) (interface{}, error) {
	return newConfig(c, &giteaConfig{})
}

// Items implements Source
func (g *GiteaTags) Items(ctx context.Context, config interface{}) (chan *Item, chan error) {
	itemChan := make(chan *Item)
	errChan := make(chan error)

	go func() {
		defer close(errChan)
		defer close(itemChan)

		cfg := config.(*giteaConfig)

		opts := gitea.ListRepoTagsOptions{
			ListOptions: gitea.ListOptions{Page: 1, PageSize: g.PageSize},
		}
		for {
			if err := ctx.Err(); err != nil {
				return
			}
			tags, resp, err := g.client.ListRepoTags(
				cfg.Owner,
				cfg.Repo,
				opts,
			)
			if err != nil {
				sendErr(ctx, errChan, err)
				return
			}
			g.logger.WithField("page", opts.Page).Debugf("Fetched %d tags.", len(tags))

			for _, t := range tags {
				if !sendItem(ctx, itemChan, itemFromGiteaTag(t)) {
					return
				}
			}

			nextPage, err := giteautil.NextPage(pager.LinkHeader(resp.Header))
			if err != nil {
				sendErr(ctx, errChan, err)
				return
			}
			if nextPage == 0 {
				return
			}
			if nextPage <= opts.Page {
				sendErr(ctx, errChan, fmt.Errorf("%w: next page %d after page %d", pager.ErrLoop, nextPage, opts.Page))
				return
			}
			opts.Page = nextPage
		}
	}()

	return limit(ctx, itemChan, errChan, g.Limit)
}

func itemFromGiteaTag(t *gitea.Tag) *Item {
	var url string
	if t.Commit != nil {
		url = t.Commit.URL
	}
	return &Item{
		Name: t.Name,
		URL:  url,
	}
}
