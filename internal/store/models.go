package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Comment is one top-level comment or reply. Replies point at their parent
// through ParentID; a nil ParentID marks a top-level comment.
type Comment struct {
	ID           int64     `json:"id"`
	ParentID     *int64    `json:"parentId"`
	AuthorAvatar string    `json:"authorAvatar"`
	AuthorName   string    `json:"authorName"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	VoteScore    int       `json:"voteScore"`
	IsFavorite   bool      `json:"isFavorite"`
}

// IsTopLevel reports whether the comment has no parent.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// Style derives the display emphasis from the current score.
func (c *Comment) Style() VoteStyle {
	return StyleFor(c.VoteScore)
}

// Clone returns a deep copy so callers cannot reach back into store state.
func (c *Comment) Clone() *Comment {
	cp := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		cp.ParentID = &pid
	}
	return &cp
}

// UnmarshalJSON accepts createdAt either as an RFC 3339 string or as
// milliseconds since the Unix epoch.
func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	aux := struct {
		*plain
		CreatedAt json.RawMessage `json:"createdAt"`
	}{plain: (*plain)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t, err := parseCreatedAt(aux.CreatedAt)
	if err != nil {
		return err
	}
	c.CreatedAt = t
	return nil
}

func parseCreatedAt(raw json.RawMessage) (time.Time, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return time.Time{}, nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return time.Time{}, err
		}
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("createdAt: %w", err)
		}
		return t, nil
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("createdAt: %w", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// VoteStyle is the display emphasis of a comment's score
type VoteStyle string

const (
	StylePositive VoteStyle = "positive"
	StyleNegative VoteStyle = "negative"
	StyleNeutral  VoteStyle = "neutral"
)

func StyleFor(score int) VoteStyle {
	switch {
	case score > 0:
		return StylePositive
	case score < 0:
		return StyleNegative
	default:
		return StyleNeutral
	}
}

// Sort options
type SortField string

const (
	SortByDate       SortField = "date"
	SortByRating     SortField = "rating"
	SortByReplyCount SortField = "replyCount"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

type SortSpec struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultSort is the ordering a fresh board starts with.
var DefaultSort = SortSpec{Field: SortByDate, Order: OrderAsc}

// ParseSortField maps user input onto a sort field. "replies" is accepted as
// an alias of replyCount.
func ParseSortField(s string) (SortField, bool) {
	switch s {
	case "date":
		return SortByDate, true
	case "rating":
		return SortByRating, true
	case "replyCount", "replies":
		return SortByReplyCount, true
	}
	return "", false
}

func ParseSortOrder(s string) (SortOrder, bool) {
	switch s {
	case "asc", "ascending":
		return OrderAsc, true
	case "desc", "descending":
		return OrderDesc, true
	}
	return "", false
}

// Toggle returns the opposite direction.
func (o SortOrder) Toggle() SortOrder {
	if o == OrderDesc {
		return OrderAsc
	}
	return OrderDesc
}
