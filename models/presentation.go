package models

import (
	"time"
)

// Heuristic slide counts used when the renderer cannot tell us the real
// number of slides. 23 matches the historical fixture data and is a guess
// at a "typical" deck length, not a measurement.
const (
	FallbackSlideCount = 23
)

// Presentation conversion status constants
const (
	StatusConverted   = "converted"
	StatusPlaceholder = "placeholder"
)

// Presentation represents a converted slide deck in the catalog.
// Slides and SlideTexts are parallel arrays: entry i describes slide i+1,
// and both always have exactly SlideCount entries.
type Presentation struct {
	ID            string    `bson:"_id" json:"id"`
	OriginalName  string    `bson:"original_name" json:"originalName"`
	Title         string    `bson:"title" json:"title"`
	Summary       string    `bson:"summary,omitempty" json:"summary,omitempty"`
	Author        string    `bson:"author,omitempty" json:"author,omitempty"`
	AuthorID      string    `bson:"author_id,omitempty" json:"authorId,omitempty"`
	Topics        []string  `bson:"topics" json:"topics"`
	Slides        []string  `bson:"slides" json:"slides"`
	SlideTexts    []string  `bson:"slide_texts" json:"slideTexts"`
	SlideCount    int       `bson:"slide_count" json:"slideCount"`
	IsPlaceholder bool      `bson:"is_placeholder" json:"isPlaceholder"`
	ViewCount     int64     `bson:"view_count" json:"viewCount"`
	IsDeleted     bool      `bson:"is_deleted" json:"-"`
	Converted     time.Time `bson:"converted" json:"converted"`
}

// ConvertRequest captures the metadata fields of the multipart upload form.
// The file itself arrives as the "file" form part.
type ConvertRequest struct {
	Title    string `form:"title"`
	Summary  string `form:"summary"`
	Author   string `form:"author"`
	AuthorID string `form:"authorId"`
	Topics   string `form:"topics"` // comma-separated labels
}

// ConvertResponse is returned after a successful (possibly degraded) conversion
type ConvertResponse struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	SlideCount    int      `json:"slideCount"`
	Slides        []string `json:"slides"`
	SlideTexts    []string `json:"slideTexts"`
	Topics        []string `json:"topics"`
	IsPlaceholder bool     `json:"isPlaceholder"`
	Status        string   `json:"status"`
}

// UpdateRequest is a partial metadata update; nil fields are left untouched
type UpdateRequest struct {
	Title   *string   `json:"title,omitempty"`
	Summary *string   `json:"summary,omitempty"`
	Author  *string   `json:"author,omitempty"`
	Topics  *[]string `json:"topics,omitempty"`
}
