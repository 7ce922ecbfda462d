package client

import (
	"context"
	"net/url"
	"strconv"

	"go.barcircle.dev/web/clientx"
	"go.barcircle.dev/web/core/errors"
)

// ActivityAPI covers meetups and the bar recommendations used when creating one.
type ActivityAPI struct {
	gw *clientx.Gateway
}

// Create publishes a new activity for review.
func (a *ActivityAPI) Create(ctx context.Context, n NewActivity) (*Activity, error) {
	return do[*Activity](ctx, a.gw, clientx.Post("/activities", n))
}

// Get returns one activity.
func (a *ActivityAPI) Get(ctx context.Context, id int64) (*Activity, error) {
	return do[*Activity](ctx, a.gw, clientx.Get(path("/activities", id), nil))
}

// Join signs the current user up.
func (a *ActivityAPI) Join(ctx context.Context, id int64) error {
	return exec(ctx, a.gw, clientx.Post(path("/activities", id, "join"), nil))
}

// Cancel withdraws the current user.
func (a *ActivityAPI) Cancel(ctx context.Context, id int64) error {
	return exec(ctx, a.gw, clientx.Post(path("/activities", id, "cancel"), nil))
}

// MyCreated lists activities organised by the current user.
func (a *ActivityAPI) MyCreated(ctx context.Context, p Page) (PageResult[Activity], error) {
	return do[PageResult[Activity]](ctx, a.gw, clientx.Get("/activities/my-created", p.query("size")))
}

// MyParticipated lists activities the current user joined.
func (a *ActivityAPI) MyParticipated(ctx context.Context, p Page) (PageResult[Activity], error) {
	return do[PageResult[Activity]](ctx, a.gw, clientx.Get("/activities/my-participated", p.query("size")))
}

// Recommended lists activities, optionally narrowed to a bar or beverage (0 means any).
func (a *ActivityAPI) Recommended(ctx context.Context, barID, beverageID int64, p Page) (PageResult[Activity], error) {
	q := p.query("size")
	if barID > 0 {
		q.Set("barId", strconv.FormatInt(barID, 10))
	}
	if beverageID > 0 {
		q.Set("beverageId", strconv.FormatInt(beverageID, 10))
	}
	return do[PageResult[Activity]](ctx, a.gw, clientx.Get("/activities/recommended", q))
}

// Pending lists activities awaiting review (admin).
func (a *ActivityAPI) Pending(ctx context.Context, p Page) (PageResult[Activity], error) {
	return do[PageResult[Activity]](ctx, a.gw, clientx.Get("/activities/pending", p.query("size")))
}

// Review approves or rejects an activity (admin).
func (a *ActivityAPI) Review(ctx context.Context, id int64, r Review) error {
	return exec(ctx, a.gw, clientx.Post(path("/activities", id, "review"), r))
}

// Location is an optional point used to rank bars by distance.
type Location struct {
	Latitude  float64
	Longitude float64
}

// RecommendBars suggests bars serving any of the given alcohol tags.
// Non-positive ids are dropped; at least one valid id is required.
func (a *ActivityAPI) RecommendBars(ctx context.Context, alcoholIDs []int64, near *Location, limit int) ([]Bar, error) {
	q := url.Values{}
	for _, id := range alcoholIDs {
		if id > 0 {
			q.Add("alcoholIds", strconv.FormatInt(id, 10))
		}
	}
	if len(q["alcoholIds"]) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument, "select at least one alcohol tag")
	}
	if limit <= 0 {
		limit = 10
	}
	q.Set("limit", strconv.Itoa(limit))
	if near != nil {
		q.Set("latitude", strconv.FormatFloat(near.Latitude, 'f', -1, 64))
		q.Set("longitude", strconv.FormatFloat(near.Longitude, 'f', -1, 64))
	}
	return do[[]Bar](ctx, a.gw, clientx.Get("/activities/bars/recommend", q))
}

// SearchBars finds bars by name for the activity form.
func (a *ActivityAPI) SearchBars(ctx context.Context, keyword string, limit int) ([]Bar, error) {
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{"keyword": {keyword}, "limit": {strconv.Itoa(limit)}}
	return do[[]Bar](ctx, a.gw, clientx.Get("/activities/bars/search", q))
}
