package giteautil

import (
	"net/http"

	"code.gitea.io/sdk/gitea"
	"github.com/devon-mar/nextlinks/pager"
)

// NextPage returns the page number of the next link in linkHdr or 0 on the last page.
func NextPage(linkHdr string) (int, error) {
	return pager.NextPageNumber(linkHdr, "page")
}

type ClientOptions struct {
	URL string `cfg:"url" validate:"required,url"`
	// Basic Auth
	Username string `cfg:"username"`
	Password string `cfg:"password" validate:"required_with=Username"`
	// Token Auth
	Token string `cfg:"token"`
}

func NewClient(opts ClientOptions, httpClient *http.Client) (*gitea.Client, error) {
	copts := []gitea.ClientOption{}
	if httpClient != nil {
		copts = append(copts, gitea.SetHTTPClient(httpClient))
	}
	if opts.Token != "" {
		copts = append(copts, gitea.SetToken(opts.Token))
	} else if opts.Username != "" && opts.Password != "" {
		copts = append(copts, gitea.SetBasicAuth(opts.Username, opts.Password))
	}
	return gitea.NewClient(opts.URL, copts...)
}
