package linkhdr

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNextStrings(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    []string
		wantErr error
	}{
		"empty": {
			in: "",
		},
		"no next": {
			in: `<https://one.example.com>; rel="preconnect", <https://two.example.com>; rel="preconnect", <https://three.example.com>; rel="preconnect"`,
		},
		"first rel wins": {
			in:   `<https://one.example.com>; rel="preconnect", <https://two.example.com>; rel="preconnect", <https://three.example.com>; rel="preconnect",    <https://link.example.com>; rel="next preconnect"; rel=preconnect a;    a=b`,
			want: []string{"https://link.example.com"},
		},
		"later rel ignored": {
			in: `<https://one.example.com>; rel=prev; rel=next`,
		},
		"multiple": {
			in:   `<https://one.example.com>; rel="preconnect", <https://link.example.com>; rel="next preconnect"; rel=preconnect a;    a=b, <https://link2.example.com>; rel=next  a wecx; rel="a    ed s"; a=v`,
			want: []string{"https://link.example.com", "https://link2.example.com"},
		},
		"case insensitive": {
			in:   `<https://one.example.com>; REL="NeXt"`,
			want: []string{"https://one.example.com"},
		},
		"tab separated rel": {
			in:   "<https://one.example.com>;\trel=\"last\tnext\"",
			want: []string{"https://one.example.com"},
		},
		"next substring": {
			in: `<https://one.example.com>; rel="nextpage next-archive"`,
		},
		"unknown params": {
			in:   `<https://one.example.com>; title="a; b, c"; rel=next; type=text/html`,
			want: []string{"https://one.example.com"},
		},
		"param name whitespace": {
			in:   "<https://one.example.com>; rel \t = \t next",
			want: []string{"https://one.example.com"},
		},
		"no params": {
			in:   `<https://one.example.com>, <https://two.example.com>;rel=next`,
			want: []string{"https://two.example.com"},
		},
		"trailing comma": {
			in:   `<https://one.example.com>; rel=next,`,
			want: []string{"https://one.example.com"},
		},
		"uri taken verbatim": {
			in:   `< /a b >; rel=next`,
			want: []string{" /a b "},
		},
		"docker registry": {
			in:   `</v2/library/alpine/tags/list?last=2.7&n=2>; rel="next"`,
			want: []string{"/v2/library/alpine/tags/list?last=2.7&n=2"},
		},
		"gitea": {
			in:   `<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=3&state=all>; rel="next",<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=20&state=all>; rel="last",<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=1&state=all>; rel="first",<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=1&state=all>; rel="prev"`,
			want: []string{"https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=3&state=all"},
		},
		"missing open angle": {
			in:      `https://one.example.com>; rel="preconnect", <https://two.example.com>; rel="preconnect"`,
			wantErr: ErrExpectedOpenAngle,
		},
		"comma before params": {
			in:      `<https://one.example.com>, rel="preconnect"; <https://two.example.com>; rel="preconnect"`,
			wantErr: ErrExpectedOpenAngle,
		},
		"whitespace only": {
			in:      "  \t",
			wantErr: ErrExpectedOpenAngle,
		},
		"missing close angle": {
			in:      `<https://one.example.com, rel="preconnect"; <https://two.example.com; rel="preconnect"`,
			wantErr: ErrExpectedCloseAngle,
		},
		"missing equals": {
			in:      `<https://one.example.com>; a`,
			wantErr: ErrMissingEquals,
		},
		"missing equals after rel": {
			in:      `<https://one.example.com>; rel=next; a, <https://two.example.com>`,
			wantErr: ErrMissingEquals,
		},
		"unclosed quote": {
			in:      `<https://one.example.com>; rel="preconnect, <https://two.example.com>; rel=preconnect`,
			wantErr: ErrUnclosedQuote,
		},
		"garbage after uri": {
			in:      `<https://one.example.com> bbbb`,
			wantErr: ErrExpectedSeparatorOrTermination,
		},
		"garbage after quoted value": {
			in:      `<https://one.example.com>; rel="next" x`,
			wantErr: ErrExpectedSeparatorOrTermination,
		},
		"error after match": {
			in:      `<https://one.example.com>; rel=next, <https://two.example.com> x`,
			wantErr: ErrExpectedSeparatorOrTermination,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			have, err := NextStrings(tc.in)
			if diff := cmp.Diff(tc.wantErr, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("unexpected error (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.want, have); diff != "" {
				t.Errorf("unexpected links (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNext(t *testing.T) {
	have, err := Next(`<https://one.example.com/a?page=2>; rel=next, </relative>; rel=prev, <HTTP://two.example.com>; rel="next"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"https://one.example.com/a?page=2", "http://two.example.com"}
	got := make([]string, 0, len(have))
	for _, u := range have {
		got = append(got, u.String())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected links (-want +got):\n%s", diff)
	}
}

func TestNextInvalidURI(t *testing.T) {
	_, err := Next(`<https://one.example.com>; rel=prev, <:::example.com>; rel=next`)

	var uriErr *InvalidURIError
	if !errors.As(err, &uriErr) {
		t.Fatalf("got error %v, want an InvalidURIError", err)
	}
	if uriErr.URI != ":::example.com" {
		t.Errorf("got uri %q, want %q", uriErr.URI, ":::example.com")
	}
	var parseErr *url.Error
	if !errors.As(err, &parseErr) {
		t.Errorf("expected the url error to be wrapped, got %#v", uriErr.Err)
	}
}

func TestNextRelativeURI(t *testing.T) {
	tests := map[string]string{
		"separators only": `<;,>; rel=next`,
		"relative path":   `<foo>; rel=next`,
		"absolute path":   `<https://one.example.com>; rel=next, </items?page=2>; rel=next`,
		"empty":           `<>; rel=next`,
	}

	for name, hdr := range tests {
		t.Run(name, func(t *testing.T) {
			have, err := Next(hdr)
			if !errors.Is(err, ErrRelativeURI) {
				t.Errorf("got error %v, want %v", err, ErrRelativeURI)
			}
			var uriErr *InvalidURIError
			if !errors.As(err, &uriErr) {
				t.Errorf("got error %v, want an InvalidURIError", err)
			}
			if have != nil {
				t.Errorf("expected no links, got %v", have)
			}

			// The raw text is still available.
			if _, err := NextStrings(hdr); err != nil {
				t.Errorf("NextStrings: unexpected error: %v", err)
			}
		})
	}
}

func TestNextInvalidURINotNext(t *testing.T) {
	// Only next links are parsed.
	have, err := Next(`<:::example.com>; rel=prev`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(have) != 0 {
		t.Errorf("expected no links, got %v", have)
	}
}

func TestSyntaxErrorOffset(t *testing.T) {
	hdr := `<https://one.example.com>; rel=next, <https://two.example.com>; a`
	_, err := NextStrings(hdr)

	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("got error %v, want a SyntaxError", err)
	}
	if want := 37; synErr.Offset != want {
		t.Errorf("got offset %d, want %d", synErr.Offset, want)
	}
	if !errors.Is(err, ErrMissingEquals) {
		t.Errorf("expected %v to wrap ErrMissingEquals", err)
	}
}

func TestIdempotent(t *testing.T) {
	hdr := `<https://a.example.com>; rel=next, <https://b.example.com>; rel="prev next"`
	first, err := NextStrings(hdr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := NextStrings(hdr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Errorf("results differ (-first +again):\n%s", diff)
		}
	}
}

func TestFirstNext(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    string
		wantErr error
	}{
		"none": {
			in: `<https://one.example.com>; rel=prev`,
		},
		"first of many": {
			in:   `<https://one.example.com>; rel=next, <https://two.example.com>; rel=next`,
			want: "https://one.example.com",
		},
		"error after match": {
			in:      `<https://one.example.com>; rel=next, https://two.example.com>`,
			wantErr: ErrExpectedOpenAngle,
		},
		"relative after match": {
			in:      `<https://one.example.com>; rel=next, <?page=2>; rel=next`,
			wantErr: ErrRelativeURI,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			have, err := FirstNext(tc.in)
			if diff := cmp.Diff(tc.wantErr, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("unexpected error (-want +got):\n%s", diff)
			}
			var got string
			if have != nil {
				got = have.String()
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    map[string]string
		wantErr error
	}{
		"empty": {
			in:   "",
			want: map[string]string{},
		},
		"no rel": {
			in:   `<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=2&state=all>`,
			want: map[string]string{},
		},
		"middle page": {
			in: `<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=3&state=all>; rel="next",<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=20&state=all>; rel="last",<https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=1&state=all>; rel="first prev"`,
			want: map[string]string{
				"first": "https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=1&state=all",
				"prev":  "https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=1&state=all",
				"next":  "https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=3&state=all",
				"last":  "https://gitea.com/api/v1/repos/gitea/go-sdk/issues?page=20&state=all",
			},
		},
		"first uri per rel": {
			in: `<https://one.example.com>; rel=Next, <https://two.example.com>; rel=next`,
			want: map[string]string{
				"next": "https://one.example.com",
			},
		},
		"invalid": {
			in:      `<; rel="next"`,
			wantErr: ErrExpectedCloseAngle,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			have, err := Parse(tc.in)
			if diff := cmp.Diff(tc.wantErr, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("unexpected error (-want +got):\n%s", diff)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tc.want, have); diff != "" {
				t.Errorf("unexpected rels (-want +got):\n%s", diff)
			}
		})
	}
}
