package client

import (
	"context"

	"go.barcircle.dev/web/clientx"
	"go.barcircle.dev/web/core/identity"
)

// CircleAPI covers the social feed.
type CircleAPI struct {
	gw *clientx.Gateway
}

// Posts lists recent posts.
func (c *CircleAPI) Posts(ctx context.Context, p Page) (PageResult[Post], error) {
	return do[PageResult[Post]](ctx, c.gw, clientx.Get("/circle/posts", p.query("pageSize")))
}

// Feed lists posts from followed users. Connection failures here raise no notice.
func (c *CircleAPI) Feed(ctx context.Context, p Page) (PageResult[Post], error) {
	return do[PageResult[Post]](ctx, c.gw, clientx.Get("/circle/feed", p.query("pageSize")))
}

// CreatePost publishes a post.
func (c *CircleAPI) CreatePost(ctx context.Context, n NewPost) (*Post, error) {
	return do[*Post](ctx, c.gw, clientx.Post("/circle/posts", n))
}

// MessageAPI covers direct messages.
type MessageAPI struct {
	gw *clientx.Gateway
}

// Conversations lists the current user's threads.
func (m *MessageAPI) Conversations(ctx context.Context) ([]Conversation, error) {
	return do[[]Conversation](ctx, m.gw, clientx.Get("/messages", nil))
}

// With returns the thread with one user.
func (m *MessageAPI) With(ctx context.Context, userID int64) ([]Message, error) {
	return do[[]Message](ctx, m.gw, clientx.Get(path("/messages/with", userID), nil))
}

// Send posts a message to a user.
func (m *MessageAPI) Send(ctx context.Context, userID int64, content string) (*Message, error) {
	body := map[string]string{"content": content}
	return do[*Message](ctx, m.gw, clientx.Post(path("/messages/with", userID), body))
}

// UserAPI covers profiles, follows, footprints and collections.
type UserAPI struct {
	gw *clientx.Gateway
}

// Profile returns a user's public profile.
func (u *UserAPI) Profile(ctx context.Context, id int64) (*identity.User, error) {
	return do[*identity.User](ctx, u.gw, clientx.Get(path("/users", id), nil))
}

// UpdateProfile edits the current user's profile.
func (u *UserAPI) UpdateProfile(ctx context.Context, p Profile) (*identity.User, error) {
	return do[*identity.User](ctx, u.gw, clientx.Put("/users/profile", p))
}

// ChangePassword updates the current user's password.
func (u *UserAPI) ChangePassword(ctx context.Context, c PasswordChange) error {
	return exec(ctx, u.gw, clientx.Put("/users/password", c))
}

// Follow follows a user.
func (u *UserAPI) Follow(ctx context.Context, id int64) error {
	return exec(ctx, u.gw, clientx.Post(path("/users", id, "follow"), nil))
}

// Unfollow stops following a user.
func (u *UserAPI) Unfollow(ctx context.Context, id int64) error {
	return exec(ctx, u.gw, clientx.Delete(path("/users", id, "follow")))
}

// Followees lists the users the current user follows.
func (u *UserAPI) Followees(ctx context.Context) ([]identity.User, error) {
	return do[[]identity.User](ctx, u.gw, clientx.Get("/users/followees", nil))
}

// SetMessagePolicy controls who may message the current user.
func (u *UserAPI) SetMessagePolicy(ctx context.Context, p MessagePolicy) error {
	return exec(ctx, u.gw, clientx.Put("/users/message-policy", p))
}

// BlockRecommendation hides a user from recommendations.
func (u *UserAPI) BlockRecommendation(ctx context.Context, id int64) error {
	return exec(ctx, u.gw, clientx.Post(path("/users", id, "block-recommend"), nil))
}

// Collections lists saved items.
func (u *UserAPI) Collections(ctx context.Context, p Page) (PageResult[Collection], error) {
	return do[PageResult[Collection]](ctx, u.gw, clientx.Get("/collections", p.query("size")))
}

// Footprints lists recent visits.
func (u *UserAPI) Footprints(ctx context.Context, p Page) (PageResult[Footprint], error) {
	return do[PageResult[Footprint]](ctx, u.gw, clientx.Get("/footprints", p.query("size")))
}

// RecordFootprint logs a visit.
func (u *UserAPI) RecordFootprint(ctx context.Context, f Footprint) error {
	return exec(ctx, u.gw, clientx.Post("/footprints", f))
}
