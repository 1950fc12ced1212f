package feed

import "time"

// DefaultPageSize is how many reels one feed page carries.
const DefaultPageSize = 12

// Creator is the denormalized profile summary attached to each feed reel,
// resolved in a second lookup keyed by the page's distinct owner IDs.
type Creator struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Reel is one public, completed reel as it appears in the feed.
type Reel struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	OutputURL string    `json:"output_url"`
	UserID    string    `json:"user_id"`
	Creator   *Creator  `json:"creator,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is one slice of the public feed. HasMore is false exactly when the
// page came back shorter than the requested size.
type Page struct {
	Reels   []Reel `json:"reels"`
	Offset  int    `json:"offset"`
	HasMore bool   `json:"has_more"`
}

// DistinctUserIDs returns the unique owner IDs of a page's reels, in first
// appearance order, for the creator lookup.
func DistinctUserIDs(reels []Reel) []string {
	seen := make(map[string]bool, len(reels))
	var ids []string
	for _, r := range reels {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	return ids
}

// BuildPage attaches creator summaries to a fetched page of reels and
// decides whether more pages remain. Reels whose owner has no profile keep
// a nil Creator rather than dropping out of the page.
func BuildPage(reels []Reel, creators map[string]Creator, offset, pageSize int) Page {
	for i := range reels {
		if c, ok := creators[reels[i].UserID]; ok {
			creator := c
			reels[i].Creator = &creator
		}
	}
	return Page{
		Reels:   reels,
		Offset:  offset,
		HasMore: len(reels) == pageSize,
	}
}
