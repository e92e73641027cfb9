package storage

// IntentMatch is the result of an intent lookup. Matched is false when no
// row qualified; all other fields are zero values in that case.
type IntentMatch struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Keyword  string `json:"keyword"`
	Weight   int    `json:"weight"`
	Position int    `json:"position"` // 1-based rune offset of the keyword in the input
	Matched  bool   `json:"matched"`
}

// EntityMatch is the result of an entity lookup. Same contract as
// IntentMatch.
type EntityMatch struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Keyword  string `json:"keyword"`
	Weight   int    `json:"weight"`
	Position int    `json:"position"`
	Matched  bool   `json:"matched"`
}

// Settings is the per-event snapshot of runtime flags. It is loaded fresh
// at the start of every text/image event and never cached across events.
type Settings struct {
	AccessManagement bool     `json:"access_management"`
	AdminUserIDs     []string `json:"admin_user_ids"`
	UploadCategory   string   `json:"upload_category"` // empty = upload disabled
}

// AllowAccess reports whether the given user may use gated operations.
// When access management is disabled everyone is allowed.
func (s *Settings) AllowAccess(userID string) bool {
	if !s.AccessManagement {
		return true
	}
	for _, id := range s.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the given user is on the admin allow-list,
// regardless of the access-management flag.
func (s *Settings) IsAdmin(userID string) bool {
	for _, id := range s.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Listing is one restaurant record scraped from a review-site page.
type Listing struct {
	ID         int64   `json:"id"`
	EntityName string  `json:"entity_name,omitempty"` // entity this listing is pinned to, if any
	Name       string  `json:"name"`
	ImageKey   string  `json:"image_key,omitempty"`
	URL        string  `json:"url"`
	Score      float64 `json:"score"` // 0-5
	Station    string  `json:"station,omitempty"`
	Genre      string  `json:"genre,omitempty"`
	Hours      string  `json:"hours,omitempty"` // normalized, max 100 runes
	CreatedAt  int64   `json:"created_at"`
}
