package client

import (
	"context"
	"net/url"
	"strconv"

	"go.barcircle.dev/web/clientx"
	"go.barcircle.dev/web/core/errors"
	"go.barcircle.dev/web/core/identity"
)

// RecommendAPI covers personalised suggestions. Connection failures on these
// endpoints raise no notice.
type RecommendAPI struct {
	gw *clientx.Gateway
}

// Posts recommends circle posts.
func (r *RecommendAPI) Posts(ctx context.Context, p Page) (PageResult[Post], error) {
	return do[PageResult[Post]](ctx, r.gw, clientx.Get("/recommend/posts", p.query("size")))
}

// Users recommends people to follow.
func (r *RecommendAPI) Users(ctx context.Context, p Page) (PageResult[identity.User], error) {
	return do[PageResult[identity.User]](ctx, r.gw, clientx.Get("/recommend/users", p.query("size")))
}

// Bars recommends bars.
func (r *RecommendAPI) Bars(ctx context.Context, p Page) (PageResult[Bar], error) {
	return do[PageResult[Bar]](ctx, r.gw, clientx.Get("/recommend/bars", p.query("size")))
}

// Beverages recommends drinks.
func (r *RecommendAPI) Beverages(ctx context.Context, p Page) (PageResult[Beverage], error) {
	return do[PageResult[Beverage]](ctx, r.gw, clientx.Get("/recommend/beverages", p.query("size")))
}

// SimilarPosts lists posts like postID (default 5).
func (r *RecommendAPI) SimilarPosts(ctx context.Context, postID int64, size int) ([]Post, error) {
	if size <= 0 {
		size = 5
	}
	q := url.Values{"size": {strconv.Itoa(size)}}
	return do[[]Post](ctx, r.gw, clientx.Get(path("/recommend/similar-posts", postID), q))
}

// SearchAPI is the global search box.
type SearchAPI struct {
	gw *clientx.Gateway
}

// All searches every resource for keyword, optionally narrowed by type.
func (s *SearchAPI) All(ctx context.Context, keyword, kind string) (*SearchResult, error) {
	if keyword == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "search keyword is empty")
	}
	q := url.Values{"keyword": {keyword}}
	set(q, "type", kind)
	return do[*SearchResult](ctx, s.gw, clientx.Get("/search", q))
}

// DailyQuestionAPI covers the daily quiz.
type DailyQuestionAPI struct {
	gw *clientx.Gateway
}

// Today returns today's question.
func (d *DailyQuestionAPI) Today(ctx context.Context) (*DailyQuestion, error) {
	return do[*DailyQuestion](ctx, d.gw, clientx.Get("/daily-question/today", nil))
}

// Answer submits the chosen option.
func (d *DailyQuestionAPI) Answer(ctx context.Context, questionID int64, optionIndex int) (*Answer, error) {
	if optionIndex < 0 {
		return nil, errors.New(errors.CodeInvalidArgument, "option index must not be negative")
	}
	body := struct {
		OptionIndex int `json:"optionIndex"`
	}{optionIndex}
	return do[*Answer](ctx, d.gw, clientx.Post(path("/daily-question", questionID, "answer"), body))
}

// FileAPI manages uploaded files.
type FileAPI struct {
	gw *clientx.Gateway
}

// Delete removes an uploaded file by its uuid.
func (f *FileAPI) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New(errors.CodeInvalidArgument, "file id is empty")
	}
	return exec(ctx, f.gw, clientx.Delete(path("/files", id)))
}
