package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Project Validation
// =============================================================================

var (
	ErrProjectNameRequired     = errors.New("project name is required")
	ErrProjectNameTooLong      = errors.New("project name must be at most 64 characters")
	ErrProjectNameInvalidChars = errors.New("project name can only contain lowercase letters, digits, hyphens and underscores")
	ErrProjectPathRequired     = errors.New("project path is required")
)

var projectNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateProjectName checks a registry project name.
func ValidateProjectName(name string) error {
	if name == "" {
		return ErrProjectNameRequired
	}
	if len(name) > 64 {
		return ErrProjectNameTooLong
	}
	if !projectNameRegex.MatchString(name) {
		return ErrProjectNameInvalidChars
	}
	return nil
}

// Slugify converts a directory or display name to a project name.
//
// The transformation rules are:
//   - Lowercase letters, digits, hyphens and underscores are kept
//   - Uppercase letters are converted to lowercase
//   - Spaces and dots are converted to hyphens
//   - All other characters are removed
//
// Example:
//
//	Slugify("My Shop")    // returns "my-shop"
//	Slugify("shop.local") // returns "shop-local"
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 32)
		case r == ' ' || r == '.':
			b.WriteByte('-')
		}
	}
	return strings.TrimLeft(b.String(), "-_")
}

// =============================================================================
// Project
// =============================================================================

// Project is a registered workspace root.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject creates a project after validating its name and path.
func NewProject(name, path string) (*Project, error) {
	if err := ValidateProjectName(name); err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	if strings.TrimSpace(path) == "" {
		return nil, ErrProjectPathRequired
	}

	now := time.Now().UTC()
	return &Project{
		ID:        "prj_" + uuid.New().String()[:8],
		Name:      name,
		Path:      path,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
