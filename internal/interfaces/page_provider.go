package interfaces

import "context"

// PageProvider returns the rendered detail page of an instrument.
// Content is best effort: client-side rendering may not have finished.
type PageProvider interface {
	Fetch(ctx context.Context, identifier string) (string, error)
}

// PageRenderer renders an arbitrary URL and returns its outer HTML
type PageRenderer interface {
	RenderURL(ctx context.Context, url string) (string, error)
}
