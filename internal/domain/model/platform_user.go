package model

import (
	"strings"
	"time"

	"messaging-bridge/internal/domain"
)

// UnknownDisplayName is stored when the platform did not tell us who the user is.
const UnknownDisplayName = "Unknown"

// DemoDisplayName is stored for recipients first seen by a demo-mode adapter.
const DemoDisplayName = "Demo User"

// PlaceholderDisplayNames never overwrite a name the platform reported.
var PlaceholderDisplayNames = []string{UnknownDisplayName, DemoDisplayName}

func IsPlaceholderName(name string) bool {
	for _, p := range PlaceholderDisplayNames {
		if name == p {
			return true
		}
	}
	return false
}

// PlatformUser is a user known to one platform's namespace. It is a denormalized
// cache of what the platform reported last; delivery never depends on it.
type PlatformUser struct {
	UserID      string            `json:"userId"`
	DisplayName string            `json:"displayName"`
	Meta        map[string]string `json:"platformMeta,omitempty"`
	IsActive    bool              `json:"isActive"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// NewPlatformUser builds the row an upsert will write.
func NewPlatformUser(userID, displayName string, meta map[string]string) (*PlatformUser, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = UnknownDisplayName
	}
	cleaned := make(map[string]string, len(meta))
	for k, v := range meta {
		if k = strings.TrimSpace(k); k != "" && v != "" {
			cleaned[k] = v
		}
	}
	now := time.Now().UTC()
	return &PlatformUser{
		UserID:      userID,
		DisplayName: displayName,
		Meta:        cleaned,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// HasKnownName is false for rows written before the platform revealed a name.
func (u *PlatformUser) HasKnownName() bool {
	return u != nil && u.DisplayName != "" && !IsPlaceholderName(u.DisplayName)
}
