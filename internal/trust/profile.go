package trust

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	merrors "github.com/PolarWolf314/mainsail/internal/errors"
)

// Profile is a member profile as published by a registry.
type Profile struct {
	Name         string
	Location     string
	Affiliation  string
	Active       bool
	LastVerified string

	// Registry is the name of the registry the profile came from.
	Registry string
}

// Summary renders the profile for display next to a document name.
func (p Profile) Summary() string {
	var b strings.Builder
	for _, line := range []string{p.Name, p.Location, p.Affiliation} {
		if line != "" {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "Verified on %s", p.LastVerified)
	return b.String()
}

type valueField struct {
	Value string `toml:"Value"`
}

type profileDocument struct {
	Name        valueField `toml:"Name"`
	Location    valueField `toml:"Location"`
	Affiliation valueField `toml:"Affiliation"`
	PublicKey   struct {
		Active               bool `toml:"Active"`
		LastVerificationDate any  `toml:"Last_verification_date"`
	} `toml:"Public_key"`
}

// ParseProfile decodes a registry profile document. The Public_key.Active
// field is required.
func ParseProfile(data []byte) (Profile, error) {
	var doc profileDocument
	meta, err := toml.Decode(string(data), &doc)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", merrors.ErrRegistryParse, err)
	}
	if !meta.IsDefined("Public_key", "Active") {
		return Profile{}, fmt.Errorf("%w: Public_key.Active is missing", merrors.ErrRegistryParse)
	}

	return Profile{
		Name:         doc.Name.Value,
		Location:     doc.Location.Value,
		Affiliation:  doc.Affiliation.Value,
		Active:       doc.PublicKey.Active,
		LastVerified: formatDate(doc.PublicKey.LastVerificationDate),
	}, nil
}

// formatDate accepts the date as a TOML date or as a string.
func formatDate(v any) string {
	switch d := v.(type) {
	case nil:
		return "unknown date"
	case time.Time:
		return d.Format("2006-01-02")
	case string:
		return d
	default:
		return fmt.Sprint(d)
	}
}
