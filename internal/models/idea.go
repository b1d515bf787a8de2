package models

import (
	"sort"
	"strings"
)

// JustNow is the display value stamped on freshly created ideas and comments.
const JustNow = "Just now"

// MaxIdeaImages caps the inline images attached to a single idea.
const MaxIdeaImages = 3

// Stage is the lifecycle label attached to an idea.
type Stage string

const (
	StageIdea      Stage = "idea"
	StageWorking   Stage = "working"
	StagePreLaunch Stage = "pre-launch"
	StageLive      Stage = "live"
)

// Stages lists every known stage in display order.
func Stages() []Stage {
	return []Stage{StageIdea, StageWorking, StagePreLaunch, StageLive}
}

// ParseStage normalises raw input into a known stage.
func ParseStage(raw string) (Stage, bool) {
	candidate := Stage(strings.ToLower(strings.TrimSpace(raw)))
	for _, stage := range Stages() {
		if stage == candidate {
			return stage, true
		}
	}
	return "", false
}

// IdeaContent holds the three named sections of an idea body.
type IdeaContent struct {
	Planning string `json:"planning"`
	Details  string `json:"details"`
	Roadmap  string `json:"roadmap"`
}

// Comment is feedback left on an idea, optionally carrying a rating.
type Comment struct {
	ID        string   `json:"id"`
	AuthorID  string   `json:"author_id"`
	Author    string   `json:"author"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"created_at"`
	Rating    *float64 `json:"rating,omitempty"`
}

// Idea is a post on the board together with its embedded engagement.
type Idea struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	AuthorID     string             `json:"author_id"`
	Author       string             `json:"author"`
	AuthorHandle string             `json:"author_handle"`
	Content      IdeaContent        `json:"content"`
	Tags         []Stage            `json:"tags"`
	Ratings      map[string]float64 `json:"ratings,omitempty"`
	Likes        int                `json:"likes,omitempty"`
	Dislikes     int                `json:"dislikes,omitempty"`
	Comments     []Comment          `json:"comments"`
	Images       []string           `json:"images,omitempty"`
	// Deprecated: ImageURL is read as Images[0] when Images is empty.
	ImageURL  string `json:"image_url,omitempty"`
	CreatedAt string `json:"created_at"`
	IsNew     bool   `json:"is_new,omitempty"`
}

// HasStage reports whether the idea is tagged with the given stage.
func (i Idea) HasStage(stage Stage) bool {
	for _, tag := range i.Tags {
		if tag == stage {
			return true
		}
	}
	return false
}

// DisplayImages returns the images to render, honouring the legacy single image field.
func (i Idea) DisplayImages() []string {
	if len(i.Images) > 0 {
		return append([]string(nil), i.Images...)
	}
	if strings.TrimSpace(i.ImageURL) != "" {
		return []string{i.ImageURL}
	}
	return []string{}
}

// RatingValues returns the ratings ordered by rater id.
func (i Idea) RatingValues() []float64 {
	raters := make([]string, 0, len(i.Ratings))
	for actorID := range i.Ratings {
		raters = append(raters, actorID)
	}
	sort.Strings(raters)

	values := make([]float64, 0, len(raters))
	for _, actorID := range raters {
		values = append(values, i.Ratings[actorID])
	}
	return values
}

// AverageRating returns the mean rating, or 0 when nobody has rated the idea.
func (i Idea) AverageRating() float64 {
	if len(i.Ratings) == 0 {
		return 0
	}
	total := 0.0
	for _, value := range i.Ratings {
		total += value
	}
	return total / float64(len(i.Ratings))
}

// Clone returns a deep copy so callers can never alias store-owned slices or maps.
func (i Idea) Clone() Idea {
	out := i
	out.Tags = append([]Stage(nil), i.Tags...)
	out.Images = append([]string(nil), i.Images...)
	if i.Ratings != nil {
		out.Ratings = make(map[string]float64, len(i.Ratings))
		for actorID, value := range i.Ratings {
			out.Ratings[actorID] = value
		}
	}
	out.Comments = make([]Comment, len(i.Comments))
	for idx, comment := range i.Comments {
		if comment.Rating != nil {
			rating := *comment.Rating
			comment.Rating = &rating
		}
		out.Comments[idx] = comment
	}
	return out
}
