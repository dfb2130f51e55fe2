package dom

import (
	"net/url"

	"github.com/vango-dev/storefront/internal/errors"
)

// Window bundles the document and session history of one page.
type Window struct {
	Document *Document
	History  *History
}

// NewWindow creates a window at rawURL with an empty root container.
// A URL without scheme and host is placed on http://localhost.
func NewWindow(rawURL, rootID string) (*Window, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.New("E002").Wrap(err)
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		u.Host = "localhost"
	}
	if u.Path == "" {
		u.Path = "/"
	}
	doc, err := NewDocument(rootID)
	if err != nil {
		return nil, err
	}
	return &Window{Document: doc, History: NewHistory(u)}, nil
}

// Location returns the current URL.
func (w *Window) Location() *url.URL {
	return w.History.Location()
}
