package source

import (
	"context"
	"fmt"

	"github.com/devon-mar/nextlinks/pager"
	"github.com/devon-mar/nextlinks/utils/githubutil"
	"github.com/google/go-github/v45/github"
	log "github.com/sirupsen/logrus"
)

const (
	typeGitHubTags = "github_tags"
)

type gitHubConfig struct {
	Owner string `cfg:"owner" validate:"required"`
	Repo  string `cfg:"repo" validate:"required"`
}

type GitHubTags struct {
	githubutil.GitHubOptions `cfg:",squash"`
	Cache                    bool   `cfg:"cache"`
	CacheDir                 string `cfg:"cache_dir"`
	PageSize                 int    `cfg:"page_size" validate:"omitempty,gte=0,lte=100"`
	Limit                    int    `cfg:"limit" validate:"gte=0"`

	client *github.Client
	logger log.FieldLogger
}

func (g *GitHubTags) init(logger log.FieldLogger) error {
	if g.PageSize == 0 {
		// 100 is the max.
		g.PageSize = 100
	}
	g.logger = logger

	tr := pager.NewTransport(pager.ClientOptions{Cache: g.Cache, CacheDir: g.CacheDir})

	var err error
	g.client, err = githubutil.NewClient(&g.GitHubOptions, tr)
	return err
}

// NewConfig implements Source
func (*GitHubTags) NewConfig(c map[string]interface{}) (interface{}, error) {
	return newConfig(c, &gitHubConfig{})
}

// Items implements Source
func (g *GitHubTags) Items(ctx context.Context, config interface{}) (chan *Item, chan error) {
	itemChan := make(chan *Item)
	errChan := make(chan error)

	go func() {
		defer close(errChan)
		defer close(itemChan)

		cfg := config.(*gitHubConfig)

		listOpts := &github.ListOptions{
			Page:    1,
			PerPage: g.PageSize,
		}
		for {
			tags, resp, err := g.client.Repositories.ListTags(
				ctx,
				cfg.Owner,
				cfg.Repo,
				listOpts,
			)
			if err != nil {
				sendErr(ctx, errChan, err)
				return
			}
			g.logger.WithField("page", listOpts.Page).Debugf("Fetched %d tags.", len(tags))

			for _, t := range tags {
				var url string
				if t.Commit != nil {
					url = t.Commit.GetHTMLURL()
				}
				if !sendItem(ctx, itemChan, &Item{Name: t.GetName(), URL: url}) {
					return
				}
			}

			nextPage, err := githubutil.NextPage(pager.LinkHeader(resp.Header))
			if err != nil {
				sendErr(ctx, errChan, err)
				return
			}
			if nextPage == 0 {
				return
			}
			if nextPage <= listOpts.Page {
				sendErr(ctx, errChan, fmt.Errorf("%w: next page %d after page %d", pager.ErrLoop, nextPage, listOpts.Page))
				return
			}
			listOpts.Page = nextPage
		}
	}()

	return limit(ctx, itemChan, errChan, g.Limit)
}
