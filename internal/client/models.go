package client

import (
	"time"

	"go.barcircle.dev/web/core/identity"
)

// Credentials are the login form fields.
type Credentials struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Registration are the sign-up form fields.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Nickname string `json:"nickname,omitempty"`
}

// Activity is a meetup organised at a bar.
type Activity struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	BarID            int64      `json:"barId"`
	BarName          string     `json:"barName,omitempty"`
	BeverageID       int64      `json:"beverageId,omitempty"`
	OrganizerID      int64      `json:"organizerId,omitempty"`
	StartTime        *time.Time `json:"startTime,omitempty"`
	MaxParticipants  int        `json:"maxParticipants,omitempty"`
	ParticipantCount int        `json:"participantCount,omitempty"`
	Status           string     `json:"status,omitempty"`
}

// NewActivity is the body of an activity creation.
type NewActivity struct {
	Title           string     `json:"title" validate:"required"`
	Description     string     `json:"description,omitempty"`
	BarID           int64      `json:"barId" validate:"required"`
	BeverageID      int64      `json:"beverageId,omitempty"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	MaxParticipants int        `json:"maxParticipants,omitempty"`
}

// Review is an approve/reject verdict with an optional note.
type Review struct {
	Approved bool   `json:"approved"`
	Note     string `json:"reviewNote,omitempty"`
}

// Bar is a venue.
type Bar struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  float64  `json:"latitude,omitempty"`
	Longitude float64  `json:"longitude,omitempty"`
	Rating    float64  `json:"rating,omitempty"`
	Distance  float64  `json:"distance,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// BarApplication is a request to list a new bar.
type BarApplication struct {
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Status  string `json:"status,omitempty"`
}

// BarReview is a rating left on a bar.
type BarReview struct {
	ID      int64  `json:"id,omitempty"`
	BarID   int64  `json:"barId"`
	UserID  int64  `json:"userId,omitempty"`
	Rating  int    `json:"rating"`
	Content string `json:"content,omitempty"`
}

// NearbyQuery locates bars around a point.
type NearbyQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKM  float64
}

// Beverage is a drink in the catalogue.
type Beverage struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	ABV         float64 `json:"abv,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// BeverageQuery filters the beverage listing.
type BeverageQuery struct {
	Page
	Keyword  string
	Category string
}

// Alcohol is a spirit tag used for recommendations.
type Alcohol struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Post is a circle post.
type Post struct {
	ID           int64          `json:"id"`
	Author       *identity.User `json:"author,omitempty"`
	Content      string         `json:"content"`
	Images       []string       `json:"images,omitempty"`
	LikeCount    int            `json:"likeCount,omitempty"`
	CommentCount int            `json:"commentCount,omitempty"`
	CreatedAt    *time.Time     `json:"createdAt,omitempty"`
}

// NewPost is the body of a circle post creation.
type NewPost struct {
	Content string   `json:"content" validate:"required"`
	Images  []string `json:"images,omitempty"`
}

// WikiPage is a knowledge-base article.
type WikiPage struct {
	ID      int64  `json:"id,omitempty"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Conversation summarises a direct-message thread.
type Conversation struct {
	PeerID      int64  `json:"peerId"`
	PeerName    string `json:"peerName,omitempty"`
	LastMessage string `json:"lastMessage,omitempty"`
	UnreadCount int    `json:"unreadCount,omitempty"`
}

// Message is one direct message.
type Message struct {
	ID         int64      `json:"id"`
	SenderID   int64      `json:"senderId"`
	ReceiverID int64      `json:"receiverId"`
	Content    string     `json:"content"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// Report reasons accepted by the backend.
const (
	ReasonSpam           = "SPAM"
	ReasonAbuse          = "ABUSE"
	ReasonPornography    = "PORNOGRAPHY"
	ReasonIllegal        = "ILLEGAL"
	ReasonFraud          = "FRAUD"
	ReasonMisinformation = "MISINFORMATION"
	ReasonHarassment     = "HARASSMENT"
	ReasonOther          = "OTHER"
)

// Report is a user complaint about content.
type Report struct {
	ID         int64  `json:"id,omitempty"`
	TargetType string `json:"targetType"`
	TargetID   int64  `json:"targetId"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
	Status     string `json:"status,omitempty"`
	RiskLevel  int    `json:"riskLevel,omitempty"`
}

// ReportStats are the moderation dashboard counters.
type ReportStats struct {
	Pending     int64 `json:"pending"`
	UnderReview int64 `json:"underReview"`
	Processed   int64 `json:"processed"`
	HighRisk    int64 `json:"highRisk"`
}

// Moderation actions.
const (
	ActionNone   = "NONE"
	ActionWarn   = "WARN"
	ActionDelete = "DELETE"
	ActionBlock  = "BLOCK"
	ActionMute3  = "MUTE_3"
	ActionMute7  = "MUTE_7"
	ActionMute30 = "MUTE_30"
	ActionBan    = "BAN"
)

// Handling is a moderator's verdict on a report.
type Handling struct {
	Status     string `json:"status"`
	HandleNote string `json:"handleNote,omitempty"`
	Action     string `json:"action,omitempty"`
}

// SellerApplication is a request for the SELLER role.
type SellerApplication struct {
	ID          int64  `json:"id,omitempty"`
	ShopName    string `json:"shopName"`
	ContactInfo string `json:"contactInfo,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Profile is the editable part of the signed-in user.
type Profile struct {
	Nickname  string `json:"nickname,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// PasswordChange is the body of a password update.
type PasswordChange struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// MessagePolicy controls who may message the user.
type MessagePolicy struct {
	Policy string `json:"policy"`
}

// Footprint records a visit to a bar or beverage page.
type Footprint struct {
	ID         int64      `json:"id,omitempty"`
	TargetType string     `json:"targetType"`
	TargetID   int64      `json:"targetId"`
	VisitedAt  *time.Time `json:"visitedAt,omitempty"`
}

// Collection is a saved item.
type Collection struct {
	ID         int64  `json:"id"`
	TargetType string `json:"targetType"`
	TargetID   int64  `json:"targetId"`
	Title      string `json:"title,omitempty"`
}

// DailyQuestion is today's quiz.
type DailyQuestion struct {
	ID       int64    `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answered bool     `json:"answered,omitempty"`
}

// Answer is the outcome of answering the daily question.
type Answer struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

// SearchResult groups hits per resource.
type SearchResult struct {
	Bars      []Bar            `json:"bars,omitempty"`
	Beverages []Beverage       `json:"beverages,omitempty"`
	Posts     []Post           `json:"posts,omitempty"`
	Users     []*identity.User `json:"users,omitempty"`
	Wiki      []WikiPage       `json:"wiki,omitempty"`
}
