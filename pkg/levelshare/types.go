package levelshare

import (
	"time"

	"github.com/google/uuid"
)

// Role is the domain type for user privilege levels.
type Role string

// Role constants (typed).
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// BlobKind tells the blob store what it is holding. Document blobs carry a
// level's JSON definition, image blobs carry its screenshots.
type BlobKind string

// Blob kind constants (typed).
const (
	BlobKindDocument BlobKind = "document"
	BlobKindImage    BlobKind = "image"
)

// MaxImagesPerLevel is the most screenshots a single level may carry.
const MaxImagesPerLevel = 3

// DefaultUploadLimit is the combined byte ceiling for one publish submission
// (payload plus all images).
const DefaultUploadLimit int64 = 3 << 20 // 3 MiB

// DefaultSearchLimit caps the number of results a search returns.
const DefaultSearchLimit = 20

// User represents a registered account.
//
// CredentialHash is the salted bcrypt hash of the user's password. It never
// leaves the identity service: the field is excluded from JSON serialization
// and no handler returns it.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	CredentialHash string    `json:"-"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// BlobRef points at one blob held by the external object store. URL is what
// readers fetch; BlobID is what the store needs to delete it again.
type BlobRef struct {
	URL    string `json:"url"`
	BlobID string `json:"blob_id"`
}

// Level is a published content item: metadata, up to three image blobs and
// exactly one payload blob holding the level's JSON definition.
//
// CreatorUsername is denormalized at publish time; ownership checks compare
// against it rather than a mutable foreign key.
type Level struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	CreatorUsername string    `json:"creator"`
	Images          []BlobRef `json:"images"`
	Payload         BlobRef   `json:"payload"`
	CreatedAt       time.Time `json:"created_at"`
}

// Identity is the resolved actor of a request. The zero value is anonymous.
type Identity struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Session is a signed, time-limited token asserting a user's identity and role.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LevelFilter narrows a level listing. A zero filter matches everything.
type LevelFilter struct {
	Creator string
}
