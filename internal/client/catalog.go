package client

import (
	"context"

	"go.barcircle.dev/web/clientx"
)

// BeverageAPI covers the drink catalogue.
type BeverageAPI struct {
	gw *clientx.Gateway
}

// List returns one page of beverages.
func (b *BeverageAPI) List(ctx context.Context, q BeverageQuery) (PageResult[Beverage], error) {
	v := q.Page.query("size")
	set(v, "keyword", q.Keyword)
	set(v, "category", q.Category)
	return do[PageResult[Beverage]](ctx, b.gw, clientx.Get("/beverages", v))
}

// Get returns one beverage.
func (b *BeverageAPI) Get(ctx context.Context, id int64) (*Beverage, error) {
	return do[*Beverage](ctx, b.gw, clientx.Get(path("/beverages", id), nil))
}

// Create adds a beverage.
func (b *BeverageAPI) Create(ctx context.Context, bev Beverage) (*Beverage, error) {
	return do[*Beverage](ctx, b.gw, clientx.Post("/beverages", bev))
}

// Update replaces a beverage.
func (b *BeverageAPI) Update(ctx context.Context, id int64, bev Beverage) (*Beverage, error) {
	return do[*Beverage](ctx, b.gw, clientx.Put(path("/beverages", id), bev))
}

// Delete removes a beverage.
func (b *BeverageAPI) Delete(ctx context.Context, id int64) error {
	return exec(ctx, b.gw, clientx.Delete(path("/beverages", id)))
}

// AlcoholAPI lists spirit tags.
type AlcoholAPI struct {
	gw *clientx.Gateway
}

// List returns every alcohol tag.
func (a *AlcoholAPI) List(ctx context.Context) ([]Alcohol, error) {
	return do[[]Alcohol](ctx, a.gw, clientx.Get("/alcohols", nil))
}

// WikiAPI covers knowledge-base articles.
type WikiAPI struct {
	gw *clientx.Gateway
}

// List returns one page of articles, optionally filtered by keyword.
func (w *WikiAPI) List(ctx context.Context, keyword string, p Page) (PageResult[WikiPage], error) {
	v := p.query("size")
	set(v, "keyword", keyword)
	return do[PageResult[WikiPage]](ctx, w.gw, clientx.Get("/wiki/pages", v))
}

// Get returns the article with the given slug.
func (w *WikiAPI) Get(ctx context.Context, slug string) (*WikiPage, error) {
	return do[*WikiPage](ctx, w.gw, clientx.Get(path("/wiki/pages", slug), nil))
}

// Create adds an article.
func (w *WikiAPI) Create(ctx context.Context, page WikiPage) (*WikiPage, error) {
	return do[*WikiPage](ctx, w.gw, clientx.Post("/wiki/pages", page))
}

// Update replaces an article by id.
func (w *WikiAPI) Update(ctx context.Context, id int64, page WikiPage) (*WikiPage, error) {
	return do[*WikiPage](ctx, w.gw, clientx.Put(path("/wiki/pages", id), page))
}
