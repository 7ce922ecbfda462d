// Package client provides typed wrappers over every backend resource.
//
// Overview:
//   - Responsibility: Map resource operations to gateway requests and decode payloads
//   - Key Types: Client grouping one API value per resource, Page and PageResult
//   - Concurrency Model: Safe for concurrent use; all state lives in the gateway
//   - Error Semantics: Gateway errors pass through unchanged; argument checks
//     fail with CodeInvalidArgument before any request is sent
//   - Performance Notes: One gateway call per method
//
// Usage:
//
//	api := client.New(gw)
//	feed, err := api.Recommend.Posts(ctx, client.Page{Page: 1, Size: 10})
//	me, err := api.Auth.Me(ctx)
package client

import (
	"context"
	"net/url"
	"strconv"

	"go.barcircle.dev/web/clientx"
)

// Client groups the resource APIs.
type Client struct {
	gw *clientx.Gateway

	Auth          *AuthAPI
	Activities    *ActivityAPI
	Bars          *BarAPI
	Beverages     *BeverageAPI
	Alcohols      *AlcoholAPI
	Circle        *CircleAPI
	Wiki          *WikiAPI
	Messages      *MessageAPI
	Reports       *ReportAPI
	Moderation    *ModerationAPI
	Seller        *SellerAPI
	Users         *UserAPI
	Recommend     *RecommendAPI
	Search        *SearchAPI
	DailyQuestion *DailyQuestionAPI
	Files         *FileAPI
}

// New creates a Client sending through gw.
func New(gw *clientx.Gateway) *Client {
	return &Client{
		gw:            gw,
		Auth:          &AuthAPI{gw: gw},
		Activities:    &ActivityAPI{gw: gw},
		Bars:          &BarAPI{gw: gw},
		Beverages:     &BeverageAPI{gw: gw},
		Alcohols:      &AlcoholAPI{gw: gw},
		Circle:        &CircleAPI{gw: gw},
		Wiki:          &WikiAPI{gw: gw},
		Messages:      &MessageAPI{gw: gw},
		Reports:       &ReportAPI{gw: gw},
		Moderation:    &ModerationAPI{gw: gw},
		Seller:        &SellerAPI{gw: gw},
		Users:         &UserAPI{gw: gw},
		Recommend:     &RecommendAPI{gw: gw},
		Search:        &SearchAPI{gw: gw},
		DailyQuestion: &DailyQuestionAPI{gw: gw},
		Files:         &FileAPI{gw: gw},
	}
}

// Gateway returns the underlying gateway.
func (c *Client) Gateway() *clientx.Gateway {
	return c.gw
}

// Page selects one page of a listing. Zero values fall back to the endpoint default.
type Page struct {
	Page int
	Size int
}

func (p Page) query(sizeKey string) url.Values {
	q := url.Values{}
	page := p.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	if p.Size > 0 {
		q.Set(sizeKey, strconv.Itoa(p.Size))
	}
	return q
}

// PageResult is a paginated listing.
type PageResult[T any] struct {
	Records []T   `json:"records"`
	Total   int64 `json:"total"`
	Current int   `json:"current"`
	Size    int   `json:"size"`
}

func path(parts ...any) string {
	p := ""
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			if len(v) > 0 && v[0] == '/' {
				p += v
			} else {
				p += "/" + url.PathEscape(v)
			}
		case int64:
			p += "/" + strconv.FormatInt(v, 10)
		case int:
			p += "/" + strconv.Itoa(v)
		}
	}
	return p
}

func set(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func do[T any](ctx context.Context, gw *clientx.Gateway, r clientx.Request) (T, error) {
	return clientx.Do[T](ctx, gw, r)
}

func exec(ctx context.Context, gw *clientx.Gateway, r clientx.Request) error {
	_, err := gw.Send(ctx, r)
	return err
}
