package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reply is one entry in a question or review thread.
type Reply struct {
	ID        uuid.UUID `json:"id"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Question is a comment thread on a content item: the originating question
// plus one level of replies.
type Question struct {
	ID        uuid.UUID `json:"id"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	Replies   []Reply   `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

// Review belongs to one course and carries an author snapshot plus staff replies.
type Review struct {
	ID        uuid.UUID `json:"id"`
	Author    Author    `json:"author"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Replies   []Reply   `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

// Link is supplementary material attached to a content item.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ContentItem is one unit of course material owning its own question thread.
type ContentItem struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	VideoURL      string     `json:"video_url"`
	VideoSection  string     `json:"video_section"`
	VideoDuration int        `json:"video_duration"`
	Suggestion    string     `json:"suggestion"`
	Links         []Link     `json:"links"`
	Questions     []Question `json:"questions"`
}

// Titled wraps a bare title for benefit and prerequisite lists.
type Titled struct {
	Title string `json:"title"`
}

// Course is the aggregate root. Content and reviews live inside the row as
// JSON documents; Ratings is derived from the reviews and recomputed on every
// review mutation, never stored independently of them. Purchased is a
// denormalized counter maintained alongside the authoritative orders table.
type Course struct {
	ID             uuid.UUID                        `json:"id" gorm:"type:char(36);primaryKey"`
	Name           string                           `json:"name" gorm:"size:255;not null;index"`
	Description    string                           `json:"description" gorm:"type:text"`
	Price          decimal.Decimal                  `json:"price" gorm:"type:decimal(20,2);not null"`
	EstimatedPrice decimal.Decimal                  `json:"estimated_price" gorm:"type:decimal(20,2)"`
	Tags           string                           `json:"tags" gorm:"size:255"`
	Level          string                           `json:"level" gorm:"size:50"`
	DemoURL        string                           `json:"demo_url" gorm:"size:512"`
	Benefits       datatypes.JSONSlice[Titled]      `json:"benefits" gorm:"type:json"`
	Prerequisites  datatypes.JSONSlice[Titled]      `json:"prerequisites" gorm:"type:json"`
	Content        datatypes.JSONSlice[ContentItem] `json:"content" gorm:"type:json"`
	Reviews        datatypes.JSONSlice[Review]      `json:"reviews" gorm:"type:json"`
	Ratings        float64                          `json:"ratings" gorm:"default:0"`
	Purchased      int64                            `json:"purchased" gorm:"default:0"`
	CreatedAt      time.Time                        `json:"created_at"`
	UpdatedAt      time.Time                        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt                   `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// RecomputeRatings sets Ratings to the arithmetic mean of all review ratings.
// An empty review list yields zero.
func (c *Course) RecomputeRatings() {
	if len(c.Reviews) == 0 {
		c.Ratings = 0
		return
	}
	sum := 0
	for _, r := range c.Reviews {
		sum += r.Rating
	}
	c.Ratings = float64(sum) / float64(len(c.Reviews))
}

// ContentItemByID returns a pointer into Content, or nil when absent.
func (c *Course) ContentItemByID(id uuid.UUID) *ContentItem {
	for i := range c.Content {
		if c.Content[i].ID == id {
			return &c.Content[i]
		}
	}
	return nil
}

// ReviewByID returns a pointer into Reviews, or nil when absent.
func (c *Course) ReviewByID(id uuid.UUID) *Review {
	for i := range c.Reviews {
		if c.Reviews[i].ID == id {
			return &c.Reviews[i]
		}
	}
	return nil
}

// PublicView returns a copy safe for unauthenticated listings: video URLs,
// question threads, suggestions and links are stripped from the content items.
func (c Course) PublicView() Course {
	stripped := make([]ContentItem, len(c.Content))
	for i, item := range c.Content {
		item.VideoURL = ""
		item.Suggestion = ""
		item.Links = nil
		item.Questions = nil
		stripped[i] = item
	}
	c.Content = stripped
	return c
}
