package githubutil

import (
	"context"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/devon-mar/nextlinks/pager"
	"github.com/google/go-github/v45/github"
	"golang.org/x/oauth2"
)

type GitHubOptions struct {
	Token               string `cfg:"token"`
	AppPrivateKey       string `cfg:"app_private_key" validate:"omitempty,required_without=Token"`
	AppPrivateKeyPath   string `cfg:"app_private_key_path" validate:"omitempty,file,required_without=Token"`
	AppID               int64  `cfg:"app_id" validate:"omitempty,required_with=AppPrivateKey"`
	AppInstallationID   int64  `cfg:"app_installation_id" validate:"required_with=AppID"`
	EnterpriseURL       string `cfg:"enterprise_url" validate:"omitempty,url"`
	EnterpriseUploadURL string `cfg:"enterprise_upload_url" validate:"omitempty,url,required_with=EnterpriseURL"`
}

// NextPage returns the page number of the next link in linkHdr or 0 on the last page.
func NextPage(linkHdr string) (int, error) {
	return pager.NextPageNumber(linkHdr, "page")
}

// NewClient returns a GitHub client authenticated as an app installation,
// with a token, or not at all. Requests go through base.
func NewClient(opts *GitHubOptions, base http.RoundTripper) (*github.Client, error) {
	if base == nil {
		base = http.DefaultTransport
	}

	httpClient := &http.Client{Transport: base}
	if opts.AppID != 0 {
		var tr *ghinstallation.Transport
		var err error
		if opts.AppPrivateKey != "" {
			tr, err = ghinstallation.New(base, opts.AppID, opts.AppInstallationID, []byte(opts.AppPrivateKey))
		} else {
			tr, err = ghinstallation.NewKeyFromFile(base, opts.AppID, opts.AppInstallationID, opts.AppPrivateKeyPath)
		}
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{Transport: tr}
	} else if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, ts)
	}
	// else - no auth

	if opts.EnterpriseURL != "" && opts.EnterpriseUploadURL != "" {
		return github.NewEnterpriseClient(opts.EnterpriseURL, opts.EnterpriseUploadURL, httpClient)
	}
	return github.NewClient(httpClient), nil
}
