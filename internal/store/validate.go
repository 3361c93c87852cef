package store

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	// bcrypt only looks at the first 72 bytes of input.
	MaxPasswordBytes  = 72
	MinUsernameLength = 3
	MaxUsernameLength = 80
	MaxEmailLength    = 120
	MaxURLLength      = 768
)

var (
	allowedSchemes = map[string]bool{
		"http":  true,
		"https": true,
		"ftp":   true,
		"ftps":  true,
	}

	// hostLabelRe matches one DNS label; the last label (TLD) must be letters.
	hostLabelRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9\-]*[a-z0-9])?$`)
	tldRe       = regexp.MustCompile(`^([a-z]{2,63}|xn--[a-z0-9\-]{1,59})$`)
)

// ValidatePassword enforces the minimum length in characters and the bcrypt
// input cap in bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return invalid("Invalid Password Length",
			fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return invalid("Invalid Password Length",
			fmt.Sprintf("Password must be at most %d bytes long.", MaxPasswordBytes))
	}
	return nil
}

// ValidateUsername checks length and that every rune is a letter or digit.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength {
		return invalid("Invalid Username Length",
			fmt.Sprintf("Username must be at least %d characters long.", MinUsernameLength))
	}
	if n > MaxUsernameLength {
		return invalid("Invalid Username Length",
			fmt.Sprintf("Username must be at most %d characters long.", MaxUsernameLength))
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return invalid("Invalid Username", "Username should be alphanumeric.")
		}
	}
	return nil
}

// ValidateEmail accepts a bare addr-spec ("user@example.com") whose domain
// has at least two labels. Display-name forms are rejected.
func ValidateEmail(email string) error {
	bad := invalid("Invalid Email", "A valid email address is required.")
	if email == "" || len(email) > MaxEmailLength {
		return bad
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return bad
	}
	at := strings.LastIndexByte(email, '@')
	if at < 1 || !validHostname(email[at+1:]) {
		return bad
	}
	return nil
}

// ValidateURL requires an absolute http(s)/ftp(s) URL with a real host.
func ValidateURL(raw string) error {
	bad := invalid("Invalid URL", "URL is invalid, please provide a valid URL.")
	if raw == "" || len(raw) > MaxURLLength || strings.ContainsAny(raw, " \t\r\n") {
		return bad
	}
	u, err := url.Parse(raw)
	if err != nil || !allowedSchemes[strings.ToLower(u.Scheme)] || u.Opaque != "" {
		return bad
	}
	host := u.Hostname()
	if host == "" {
		return bad
	}
	if net.ParseIP(host) != nil || strings.EqualFold(host, "localhost") {
		return nil
	}
	if !validHostname(host) {
		return bad
	}
	return nil
}

func validHostname(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if len(host) == 0 || len(host) > 253 {
		return false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if len(l) > 63 || !hostLabelRe.MatchString(l) {
			return false
		}
	}
	return tldRe.MatchString(labels[len(labels)-1])
}
