package services

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-form-collector/internal/domain"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func emailValidator() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New() })
	return validate
}

// Address limits from RFC 5321 as clarified by RFC 3696 errata.
const (
	emailLocalMaxLen = 64
	emailMaxLen      = 254
)

// emailShapeOK applies the checks the validator's email rule leaves out: the
// local part and whole address length limits and a host with a top-level
// label of at least two letters (or an IDNA "xn--" label).
func emailShapeOK(addr string) bool {
	if len(addr) > emailMaxLen {
		return false
	}
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || at > emailLocalMaxLen {
		return false
	}
	host := strings.TrimSuffix(addr[at+1:], ".")
	dot := strings.LastIndexByte(host, '.')
	if dot <= 0 {
		return false
	}
	tld := strings.ToLower(host[dot+1:])
	if strings.HasPrefix(tld, "xn--") {
		return len(tld) > len("xn--")+1
	}
	if utf8.RuneCountInString(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// htmlEscaper replaces the characters that are unsafe in HTML text and
// attribute contexts. html.EscapeString leaves "/" alone.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// NormalizeName trims, NFC-normalizes and HTML-escapes a display name.
func NormalizeName(raw string) string {
	return htmlEscaper.Replace(norm.NFC.String(strings.TrimSpace(raw)))
}

// NormalizeEmail lower-cases an address and canonicalizes the local part for
// providers that ignore dots or sub-addresses. The input must already be a
// syntactically valid address.
func NormalizeEmail(raw string) string {
	addr := strings.ToLower(strings.TrimSpace(raw))
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 {
		return addr
	}
	local, host := addr[:at], addr[at+1:]

	switch host {
	case "gmail.com", "googlemail.com":
		local = cutSuffixAt(local, '+')
		local = strings.ReplaceAll(local, ".", "")
		host = "gmail.com"
	case "outlook.com", "hotmail.com", "live.com", "msn.com",
		"icloud.com", "me.com", "mac.com",
		"yandex.ru", "yandex.com", "ya.ru":
		local = cutSuffixAt(local, '+')
	case "yahoo.com", "ymail.com", "rocketmail.com":
		local = cutSuffixAt(local, '-')
	}
	if local == "" {
		// Sub-address only; keep the original rather than store "@host".
		return addr
	}
	return local + "@" + host
}

func cutSuffixAt(s string, sep byte) string {
	if i := strings.IndexByte(s, sep); i >= 0 {
		return s[:i]
	}
	return s
}

// validateStrict checks and normalizes a name/email pair. It returns the
// values to store, or a *ValidationError listing every failing field.
func validateStrict(name, email string) (string, string, error) {
	var fields []FieldError

	cleanName := NormalizeName(name)
	switch {
	case cleanName == "":
		fields = append(fields, FieldError{Field: "name", Message: ErrNameRequired.Error(), Value: name})
	case utf8.RuneCountInString(cleanName) > domain.NameMaxLen:
		fields = append(fields, FieldError{Field: "name", Message: ErrNameTooLong.Error(), Value: name})
	}

	trimmed := strings.TrimSpace(email)
	cleanEmail := ""
	switch {
	case trimmed == "":
		fields = append(fields, FieldError{Field: "email", Message: ErrEmailRequired.Error(), Value: email})
	case !emailShapeOK(trimmed), emailValidator().Var(trimmed, "email") != nil:
		fields = append(fields, FieldError{Field: "email", Message: ErrEmailInvalid.Error(), Value: email})
	default:
		cleanEmail = NormalizeEmail(trimmed)
	}

	if len(fields) > 0 {
		return "", "", &ValidationError{Fields: fields}
	}
	return cleanName, cleanEmail, nil
}
