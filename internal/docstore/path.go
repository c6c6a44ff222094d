package docstore

import (
	"fmt"
	"strings"
)

// Path segments alternate collection/document: "users/{uid}/groups/{gid}".
// Collection paths have an odd segment count, document paths an even one.

// Collection joins segments into a collection path.
func Collection(segments ...string) string {
	return strings.Join(segments, "/")
}

// Doc joins a collection path and a document id.
func Doc(collection, id string) string {
	return collection + "/" + id
}

// ValidID reports whether id can be used as a single path segment.
func ValidID(id string) bool {
	return id != "" && !strings.Contains(id, "/") && strings.TrimSpace(id) == id
}

func splitPath(p string) ([]string, error) {
	if p == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	parts := strings.Split(p, "/")
	for _, s := range parts {
		if !ValidID(s) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return parts, nil
}

// splitDocPath returns the parent collection and id of a document path.
func splitDocPath(p string) (collection, id string, err error) {
	parts, err := splitPath(p)
	if err != nil {
		return "", "", err
	}
	if len(parts)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q is a collection path", ErrInvalidPath, p)
	}
	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1], nil
}

func validateCollection(p string) error {
	parts, err := splitPath(p)
	if err != nil {
		return err
	}
	if len(parts)%2 != 1 {
		return fmt.Errorf("%w: %q is a document path", ErrInvalidPath, p)
	}
	return nil
}
