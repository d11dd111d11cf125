package model

import (
	"time"
)

type ContentType string

const (
	ContentTypeDocument ContentType = "document"
	ContentTypeTweet    ContentType = "tweet"
	ContentTypeYouTube  ContentType = "youtube"
	ContentTypeLink     ContentType = "link"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeDocument, ContentTypeTweet, ContentTypeYouTube, ContentTypeLink:
		return true
	}
	return false
}

// RequiresLink reports whether content of this type must carry a link.
func (t ContentType) RequiresLink() bool {
	return t != ContentTypeDocument
}

type Content struct {
	ID        string      `db:"id" json:"id"`
	OwnerID   string      `db:"owner_id" json:"ownerId,omitempty"`
	Type      ContentType `db:"type" json:"type"`
	Link      *string     `db:"link" json:"link"`
	Title     string      `db:"title" json:"title"`
	Shared    bool        `db:"shared" json:"shared"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`

	// Loaded from content_tags
	Tags []Tag `db:"-" json:"tags"`
}

func (c *Content) OwnedBy(userID string) bool {
	return c.OwnerID == userID
}

// VisibleTo reports whether userID may read the content.
func (c *Content) VisibleTo(userID string) bool {
	return c.OwnedBy(userID) || c.Shared
}

// ContentPage is one page of a content listing.
type ContentPage struct {
	Items    []*Content `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	Pages    int        `json:"pages"`
}

// ContentScope narrows a listing within what the viewer may see.
type ContentScope string

const (
	ScopeAll      ContentScope = "all"      // own items plus everything shared
	ScopeMine     ContentScope = "mine"     // own items only
	ScopeDiscover ContentScope = "discover" // items shared by other users
)

func (s ContentScope) Valid() bool {
	switch s {
	case ScopeAll, ScopeMine, ScopeDiscover:
		return true
	}
	return false
}
