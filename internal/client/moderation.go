package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.barcircle.dev/web/clientx"
	"go.barcircle.dev/web/core/errors"
)

// ReportAPI lets users flag content.
type ReportAPI struct {
	gw *clientx.Gateway
}

// Submit files a report.
func (r *ReportAPI) Submit(ctx context.Context, rep Report) (*Report, error) {
	return do[*Report](ctx, r.gw, clientx.Post("/reports", rep))
}

// Mine lists the current user's reports.
func (r *ReportAPI) Mine(ctx context.Context, p Page) (PageResult[Report], error) {
	return do[PageResult[Report]](ctx, r.gw, clientx.Get("/reports/my", p.query("size")))
}

// Get returns one of the current user's reports.
func (r *ReportAPI) Get(ctx context.Context, id int64) (*Report, error) {
	return do[*Report](ctx, r.gw, clientx.Get(path("/reports", id), nil))
}

// ModerationAPI is the admin moderation console.
type ModerationAPI struct {
	gw *clientx.Gateway
}

const moderationRoot = "/admin/moderation"

// Stats returns the dashboard counters.
func (m *ModerationAPI) Stats(ctx context.Context) (*ReportStats, error) {
	return do[*ReportStats](ctx, m.gw, clientx.Get(moderationRoot+"/stats", nil))
}

// Pending lists reports awaiting handling.
func (m *ModerationAPI) Pending(ctx context.Context, p Page) (PageResult[Report], error) {
	return do[PageResult[Report]](ctx, m.gw, clientx.Get(moderationRoot+"/reports/pending", p.query("size")))
}

// HighRisk lists reports at or above minRiskLevel (default 70).
func (m *ModerationAPI) HighRisk(ctx context.Context, p Page, minRiskLevel int) (PageResult[Report], error) {
	if minRiskLevel <= 0 {
		minRiskLevel = 70
	}
	q := p.query("size")
	q.Set("minRiskLevel", strconv.Itoa(minRiskLevel))
	return do[PageResult[Report]](ctx, m.gw, clientx.Get(moderationRoot+"/reports/high-risk", q))
}

// All lists reports, optionally filtered by status.
func (m *ModerationAPI) All(ctx context.Context, p Page, status string) (PageResult[Report], error) {
	q := p.query("size")
	set(q, "status", status)
	return do[PageResult[Report]](ctx, m.gw, clientx.Get(moderationRoot+"/reports", q))
}

// Report returns one report.
func (m *ModerationAPI) Report(ctx context.Context, id int64) (*Report, error) {
	return do[*Report](ctx, m.gw, clientx.Get(path(moderationRoot+"/reports", id), nil))
}

// Handle records a verdict on one report.
func (m *ModerationAPI) Handle(ctx context.Context, id int64, h Handling) error {
	return exec(ctx, m.gw, clientx.Post(path(moderationRoot+"/reports", id, "handle"), h))
}

// HandleBatch records the same verdict on several reports.
func (m *ModerationAPI) HandleBatch(ctx context.Context, ids []int64, h Handling) error {
	if len(ids) == 0 {
		return errors.New(errors.CodeInvalidArgument, "no reports selected")
	}
	body := struct {
		ReportIDs  []int64 `json:"reportIds"`
		Status     string  `json:"status"`
		HandleNote string  `json:"handleNote,omitempty"`
		Action     string  `json:"action,omitempty"`
	}{ids, h.Status, h.HandleNote, h.Action}
	return exec(ctx, m.gw, clientx.Post(moderationRoot+"/reports/batch-handle", body))
}

// Mute silences a user for the given number of days.
func (m *ModerationAPI) Mute(ctx context.Context, userID int64, days int, reason string) error {
	if days <= 0 {
		return errors.New(errors.CodeInvalidArgument, "mute duration must be positive")
	}
	body := struct {
		Days   int    `json:"days"`
		Reason string `json:"reason,omitempty"`
	}{days, reason}
	return exec(ctx, m.gw, clientx.Post(path(moderationRoot+"/users", userID, "mute"), body))
}

// Ban disables a user's account.
func (m *ModerationAPI) Ban(ctx context.Context, userID int64, reason string) error {
	body := struct {
		Reason string `json:"reason,omitempty"`
	}{reason}
	return exec(ctx, m.gw, clientx.Post(path(moderationRoot+"/users", userID, "ban"), body))
}

// SellerAPI covers SELLER role applications.
type SellerAPI struct {
	gw *clientx.Gateway
}

// Apply submits an application.
func (s *SellerAPI) Apply(ctx context.Context, app SellerApplication) (*SellerApplication, error) {
	return do[*SellerApplication](ctx, s.gw, clientx.Post("/seller/applications", app))
}

// Mine lists the current user's applications.
func (s *SellerAPI) Mine(ctx context.Context) ([]SellerApplication, error) {
	return do[[]SellerApplication](ctx, s.gw, clientx.Get("/seller/applications/my", nil))
}

// Pending lists applications awaiting review (admin).
func (s *SellerAPI) Pending(ctx context.Context) ([]SellerApplication, error) {
	return do[[]SellerApplication](ctx, s.gw, clientx.Get("/seller/applications/pending", nil))
}

// Review approves or rejects an application (admin).
func (s *SellerAPI) Review(ctx context.Context, id int64, r Review) error {
	q := url.Values{"approved": {strconv.FormatBool(r.Approved)}}
	set(q, "reviewNote", r.Note)
	return exec(ctx, s.gw, clientx.Request{Method: http.MethodPut, Path: path("/seller/applications", id, "review"), Query: q})
}
