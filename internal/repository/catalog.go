package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
)

// Catalog is the content of a seed file: module definitions and, for
// deployments without an authentication service, the known users.
type Catalog struct {
	Users   []*entities.User   `json:"users"`
	Modules []*entities.Module `json:"modules"`
}

// LoadCatalog reads a JSON seed file of the form {"users": [...], "modules": [...]}.
// Every manifest is validated before it is returned.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var c Catalog
	if err = json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog JSON: %w", err)
	}

	seenUsers := make(map[int64]struct{}, len(c.Users))
	for i, u := range c.Users {
		if u == nil {
			return nil, fmt.Errorf("user #%d: empty entry", i)
		}
		if u.ID <= 0 || u.Username == "" {
			return nil, fmt.Errorf("user %d: id and username are required", u.ID)
		}
		if _, dup := seenUsers[u.ID]; dup {
			return nil, fmt.Errorf("duplicate user id %d", u.ID)
		}
		seenUsers[u.ID] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(c.Modules))
	for i, m := range c.Modules {
		if m == nil {
			return nil, fmt.Errorf("module #%d: empty entry", i)
		}
		if m.ID <= 0 {
			return nil, fmt.Errorf("module %q: id must be positive", m.Title)
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("duplicate module id %d", m.ID)
		}
		seen[m.ID] = struct{}{}

		if err := m.Content.Validate(); err != nil {
			return nil, fmt.Errorf("module %d: %w", m.ID, err)
		}
	}

	return &c, nil
}
