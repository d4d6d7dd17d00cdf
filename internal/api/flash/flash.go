// Package flash carries short one-shot messages across redirects in a
// tamper-evident way, either in a signed cookie or in an HMAC-tagged query
// string for surfaces where no cookie jar is wanted.
package flash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Mode selects the transport for redirect flash messages.
type Mode string

const (
	ModeCookie Mode = "cookie"
	ModeQuery  Mode = "query"
)

const cookieName = "_flash"

// Codec signs and verifies flash messages with a server secret.
type Codec struct {
	secret []byte
	mode   Mode
	log    zerolog.Logger
}

func NewCodec(secret string, mode Mode, log zerolog.Logger) *Codec {
	if mode != ModeQuery {
		mode = ModeCookie
	}
	return &Codec{secret: []byte(secret), mode: mode, log: log}
}

// Redirect issues a 303 redirect to uri carrying msg as a flash message,
// using the configured transport.
func (f *Codec) Redirect(c echo.Context, uri, msg string) error {
	if f.mode == ModeQuery {
		return c.Redirect(http.StatusSeeOther, uri+"?"+f.EncodeQuery(msg))
	}
	f.setCookie(c, msg)
	return c.Redirect(http.StatusSeeOther, uri)
}

// Read extracts and consumes the flash message from the request, checking
// the query parameters first, then the cookie. Forged messages are dropped
// with a warning; display is best-effort, forgery rejection is not.
func (f *Codec) Read(c echo.Context) (string, bool) {
	if msg, ok := f.readQuery(c); ok {
		return msg, true
	}
	return f.readCookie(c)
}

// EncodeQuery builds the redirect query string: the canonical
// `error=<url-encoded msg>` followed by a hex HMAC tag over it.
func (f *Codec) EncodeQuery(msg string) string {
	canonical := url.Values{"error": {msg}}.Encode()
	return canonical + "&tag=" + f.tag(canonical)
}

func (f *Codec) readQuery(c echo.Context) (string, bool) {
	msg := c.QueryParam("error")
	tag := c.QueryParam("tag")
	if msg == "" || tag == "" {
		return "", false
	}

	canonical := url.Values{"error": {msg}}.Encode()
	expected := f.tag(canonical)
	if !hmac.Equal([]byte(expected), []byte(tag)) {
		f.log.Warn().Msg("flash message with invalid HMAC tag dropped")
		return "", false
	}
	return msg, true
}

func (f *Codec) setCookie(c echo.Context, msg string) {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(msg))
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    encoded + "." + f.tag(encoded),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// readCookie verifies, decodes and clears the flash cookie so the message
// displays at most once.
func (f *Codec) readCookie(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	f.clearCookie(c)

	encoded, tag, found := strings.Cut(cookie.Value, ".")
	if !found {
		f.log.Warn().Msg("malformed flash cookie dropped")
		return "", false
	}
	if !hmac.Equal([]byte(f.tag(encoded)), []byte(tag)) {
		f.log.Warn().Msg("flash cookie with invalid signature dropped")
		return "", false
	}
	msg, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		f.log.Warn().Msg("undecodable flash cookie dropped")
		return "", false
	}
	return string(msg), true
}

func (f *Codec) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   int((-time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (f *Codec) tag(canonical string) string {
	mac := hmac.New(sha256.New, f.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}
