package lockbox

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// KeyPrefix is the namespace every stored item key lives under.
const KeyPrefix = "file:"

// StoredItem is the persisted form of an uploaded item.
type StoredItem struct {
	Content      string `json:"content"`
	PasswordHash string `json:"password_hash,omitempty"`
	// Password holds a plaintext password written by older deployments.
	// It is only ever read, never written.
	Password    string    `json:"password,omitempty"`
	Client      string    `json:"client,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClientClassified marks items written through the classified upload path.
const ClientClassified = "classified"

// Verdict is the per-request classification result.
type Verdict struct {
	IsSpecialClient bool
	Fingerprint     string
	Token           string
}

// UploadRequest carries the fields of a single upload.
type UploadRequest struct {
	Filename string `json:"filename" validate:"required"`
	Content  string `json:"content"`
	Password string `json:"password" validate:"required,max=72"`

	// Client and Fingerprint tag items written by a classified client.
	Client      string `json:"-"`
	Fingerprint string `json:"-"`
}

// UploadResult describes a stored item.
type UploadResult struct {
	Filename  string    `json:"filename"`
	Client    string    `json:"client,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is the result of a successful read.
type Item struct {
	Filename  string
	Content   string
	Client    string
	UpdatedAt time.Time
}

type ListQuery struct {
	Prefix string
	Limit  int
	Cursor string
}

type ListResult struct {
	Keys       []string
	NextCursor string
}

// Tables holds configurable table names for item storage.
// Key-value backends use the items name as their bucket or namespace.
type Tables struct {
	Items string `mapstructure:"items"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Items == "" {
		return errors.New("validate tables: items table name cannot be empty")
	}

	if !IsValidTableName(t.Items) {
		return fmt.Errorf("validate tables: invalid items table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Items)
	}

	return nil
}
