package salesforce

import (
	"context"
	"strconv"
	"strings"
)

// APIVersion is one entry of the /services/data/ version listing.
type APIVersion struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Version string `json:"version"`
}

// Versions lists the API versions the org serves, oldest first.
func (c *Client) Versions(ctx context.Context) ([]APIVersion, error) {
	var versions []APIVersion
	if err := c.GetJSON(ctx, "/services/data/", nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// PickVersion chooses the API version to use: the preferred version if the
// org serves it, otherwise the newest the org offers. Returns "" for an
// empty listing.
func PickVersion(versions []APIVersion, preferred string) string {
	newest := ""
	for _, v := range versions {
		if v.Version == preferred {
			return preferred
		}
		if newest == "" || CompareVersions(v.Version, newest) > 0 {
			newest = v.Version
		}
	}
	return newest
}

// CompareVersions performs a numeric comparison of dotted version strings.
// Returns -1 if a < b, 0 if a == b, 1 if a > b. Handles partial versions
// (e.g. "59" vs "59.0").
func CompareVersions(a, b string) int {
	aParts := parseVersionParts(a)
	bParts := parseVersionParts(b)

	maxLen := len(aParts)
	if len(bParts) > maxLen {
		maxLen = len(bParts)
	}

	for i := 0; i < maxLen; i++ {
		var av, bv int
		if i < len(aParts) {
			av = aParts[i]
		}
		if i < len(bParts) {
			bv = bParts[i]
		}
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

func parseVersionParts(v string) []int {
	parts := strings.Split(v, ".")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		result = append(result, n)
	}
	return result
}
