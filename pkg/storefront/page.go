package storefront

import (
	"context"

	"github.com/vango-dev/storefront/internal/errors"
	"github.com/vango-dev/storefront/pkg/loop"
	"github.com/vango-dev/storefront/pkg/render"
	. "github.com/vango-dev/storefront/pkg/vdom"
)

// RenderPage runs the storefront at opts.URL on a private scheduler until
// every load has settled and returns the root markup. opts.Scheduler is
// ignored.
func RenderPage(ctx context.Context, opts Options) (string, error) {
	sched := loop.NewManual()
	opts.Scheduler = sched
	a, err := New(ctx, opts)
	if err != nil {
		return "", err
	}
	a.Start()
	defer a.Stop()

	for {
		if err := a.Settle(ctx); err != nil {
			return "", errors.New("E400").WithDetail(opts.URL).Wrap(err)
		}
		if sched.Flush() == 0 {
			break
		}
	}
	return a.Root().InnerHTML(), nil
}

// Document wraps root markup in a complete HTML document.
func Document(title, rootID, markup string) (string, error) {
	doc := Html(Attribute("lang", "en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			Title(title),
		),
		Body(
			Div(ID(rootID), Raw(markup)),
		),
	)
	out, err := render.NewRenderer(render.RendererConfig{}).RenderToString(doc)
	if err != nil {
		return "", err
	}
	return "<!DOCTYPE html>\n" + out, nil
}
