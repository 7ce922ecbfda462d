package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.barcircle.dev/web/clientx"
)

// BarAPI covers venues, their applications and reviews.
type BarAPI struct {
	gw *clientx.Gateway
}

// Get returns one bar.
func (b *BarAPI) Get(ctx context.Context, id int64) (*Bar, error) {
	return do[*Bar](ctx, b.gw, clientx.Get(path("/bars", id), nil))
}

// Register submits a bar listing application.
func (b *BarAPI) Register(ctx context.Context, app BarApplication) (*BarApplication, error) {
	return do[*BarApplication](ctx, b.gw, clientx.Post("/bars/register", app))
}

// Nearby lists bars around a point.
func (b *BarAPI) Nearby(ctx context.Context, q NearbyQuery) ([]Bar, error) {
	v := url.Values{
		"latitude":  {strconv.FormatFloat(q.Latitude, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(q.Longitude, 'f', -1, 64)},
	}
	if q.RadiusKM > 0 {
		v.Set("radius", strconv.FormatFloat(q.RadiusKM, 'f', -1, 64))
	}
	return do[[]Bar](ctx, b.gw, clientx.Get("/bars/nearby", v))
}

// ByCity lists bars in a city.
func (b *BarAPI) ByCity(ctx context.Context, city string) ([]Bar, error) {
	return do[[]Bar](ctx, b.gw, clientx.Get(path("/bars/city", city), nil))
}

// SearchByName lists bars whose name matches.
func (b *BarAPI) SearchByName(ctx context.Context, name string) ([]Bar, error) {
	return do[[]Bar](ctx, b.gw, clientx.Get("/bars/search", url.Values{"name": {name}}))
}

// MyApplications lists the current user's listing applications.
func (b *BarAPI) MyApplications(ctx context.Context) ([]BarApplication, error) {
	return do[[]BarApplication](ctx, b.gw, clientx.Get("/bars/applications/my", nil))
}

// ReviewApplication approves or rejects a listing application (admin).
func (b *BarAPI) ReviewApplication(ctx context.Context, id int64, r Review) error {
	q := url.Values{"approved": {strconv.FormatBool(r.Approved)}}
	set(q, "reviewNote", r.Note)
	return exec(ctx, b.gw, clientx.Request{Method: http.MethodPut, Path: path("/bars/applications", id, "review"), Query: q})
}

// AddReview rates a bar.
func (b *BarAPI) AddReview(ctx context.Context, r BarReview) (*BarReview, error) {
	return do[*BarReview](ctx, b.gw, clientx.Post("/bars/reviews", r))
}

// Reviews lists the reviews of a bar.
func (b *BarAPI) Reviews(ctx context.Context, barID int64) ([]BarReview, error) {
	return do[[]BarReview](ctx, b.gw, clientx.Get(path("/bars", barID, "reviews"), nil))
}

// DeleteReview removes one of the current user's reviews.
func (b *BarAPI) DeleteReview(ctx context.Context, reviewID int64) error {
	return exec(ctx, b.gw, clientx.Delete(path("/bars/reviews", reviewID)))
}
