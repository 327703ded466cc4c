package utils

import (
	"os"
	"os/user"
	"regexp"
	"strings"
)

var (
	invalidNameChars = regexp.MustCompile(`[^a-z0-9\-_]`)
	repeatedHyphens  = regexp.MustCompile(`-+`)
)

// GetUsername returns the current username.
func GetUsername() (string, error) {
	user, err := user.Current()
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// GetHostname returns the system hostname.
func GetHostname() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}
	return hostname, nil
}

// SanitizeName lowercases name and strips anything that is not
// alphanumeric, a hyphen or an underscore. Spaces become hyphens.
func SanitizeName(name, fallback string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "-")
	name = invalidNameChars.ReplaceAllString(name, "")
	name = repeatedHyphens.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if name == "" {
		return fallback
	}
	return name
}

// KeyComment returns "user@host" for labelling exported public keys.
func KeyComment() string {
	username, err := GetUsername()
	if err != nil {
		username = ""
	}
	// Windows usernames carry the domain.
	if i := strings.LastIndexAny(username, `\/`); i >= 0 {
		username = username[i+1:]
	}
	hostname, err := GetHostname()
	if err != nil {
		hostname = ""
	}
	return SanitizeName(username, "user") + "@" + SanitizeName(hostname, "host")
}
