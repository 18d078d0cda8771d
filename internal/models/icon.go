package models

import "time"

const (
	IconTypeIcon         = "icon"
	IconTypeIllustration = "illustration"
	IconTypeImage        = "image"

	IconAccessFree    = "free"
	IconAccessPremium = "premium"
)

// IconFile is the stored-file metadata of a catalog entry; the binary
// itself lives behind the original/public URLs.
type IconFile struct {
	OriginalName string `json:"original_name,omitempty"`
	Ext          string `json:"ext"`
	Mimetype     string `json:"mimetype"`
	Size         int64  `json:"size"`
	OriginalURL  string `json:"original_url"`
	PublicURL    string `json:"public_url"`
}

type Icon struct {
	ID            string    `json:"id"`
	SubCategoryID string    `json:"subcategory_id"`
	Name          string    `json:"name"`
	File          IconFile  `json:"file"`
	Description   string    `json:"description,omitempty"`
	IconType      string    `json:"icon_type"`
	Tags          []string  `json:"tags"`
	Access        string    `json:"access"`
	Likes         int       `json:"likes"`
	Downloaded    int       `json:"downloaded"`
	Active        bool      `json:"active"`
	CreatedBy     string    `json:"created_by"`
	UpdatedBy     string    `json:"updated_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func IsValidIconType(t string) bool {
	return t == IconTypeIcon || t == IconTypeIllustration || t == IconTypeImage
}

func IsValidIconAccess(a string) bool {
	return a == IconAccessFree || a == IconAccessPremium
}
