package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/devon-mar/nextlinks/pager"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const envToken = "NEXTLINKS_TOKEN"

var pagesCmd = &cobra.Command{
	Use:   "pages URL",
	Short: "Follow the next links starting at URL and print every page URL.",
	Long: `Follow the next links starting at URL and print every page URL.

The bearer token can also be given through the environment variable ` + envToken + ".",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pagesOpts.Token == "" {
			pagesOpts.Token = os.Getenv(envToken)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runPages(ctx, cmd.OutOrStdout(), args[0])
	},
}

var (
	pagesOpts     pager.ClientOptions
	pagesMax      int
	pagesHeaders  []string
	pagesProgress bool
)

func init() {
	rootCmd.AddCommand(pagesCmd)
	pagesCmd.Flags().StringVar(&pagesOpts.Token, "token", "", "bearer token")
	pagesCmd.Flags().DurationVar(&pagesOpts.Timeout, "timeout", 10*time.Second, "timeout per request")
	pagesCmd.Flags().BoolVar(&pagesOpts.Cache, "cache", false, "cache responses in memory")
	pagesCmd.Flags().StringVar(&pagesOpts.CacheDir, "cache-dir", "", "cache responses in this directory")
	pagesCmd.Flags().BoolVar(&pagesOpts.Challenge, "challenge", false, "answer registry style Bearer challenges")
	pagesCmd.Flags().IntVar(&pagesMax, "max-pages", 0, "stop after this many pages (0 means no limit)")
	pagesCmd.Flags().StringArrayVarP(&pagesHeaders, "header", "H", nil, "extra request header (Name: value)")
	pagesCmd.Flags().BoolVar(&pagesProgress, "progress", false, "show a progress bar on stderr")
}

func parseHeaders(headers []string) (http.Header, error) {
	h := http.Header{}
	for _, s := range headers {
		k, v, ok := cutHeader(s)
		if !ok {
			return nil, fmt.Errorf("invalid header %q", s)
		}
		h.Add(k, v)
	}
	return h, nil
}

func runPages(ctx context.Context, w io.Writer, start string) error {
	hdr, err := parseHeaders(pagesHeaders)
	if err != nil {
		return err
	}

	p := &pager.Pager{
		Client:   pager.NewClient(pagesOpts),
		MaxPages: pagesMax,
		Header:   hdr,
		Logger:   log.WithField("start", start),
	}

	var bar *progressbar.ProgressBar
	if pagesProgress {
		bar = progressbar.Default(-1, "Following next links")
		defer bar.Finish()
	}

	return p.Walk(ctx, start, func(page *pager.Page) error {
		if bar != nil {
			_ = bar.Add(1)
		}
		_, err := fmt.Fprintln(w, page.URL)
		return err
	})
}
