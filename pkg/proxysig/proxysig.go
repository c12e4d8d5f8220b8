// Package proxysig verifies storefront app-proxy request signatures.
//
// The storefront reverse-proxy appends a `signature` query parameter computed
// as HMAC-SHA256 over a canonical rendering of the other query parameters.
// The canonical form is wire-compatible with the upstream proxy and must not
// be changed: keys sorted bytewise, values with only `&` and `=` re-encoded,
// pairs concatenated with no separator.
package proxysig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// signatureParam is the query parameter carrying the HMAC digest.
const signatureParam = "signature"

// Verify reports whether the query string of rawURL was signed with secret.
//
// It returns false for any parse failure, a missing secret, or a missing
// signature parameter. It never panics past the boundary; callers map false
// to HTTP 401.
func Verify(rawURL, secret string) bool {
	if secret == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	params, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return false
	}

	supplied := params.Get(signatureParam)
	if supplied == "" {
		return false
	}
	params.Del(signatureParam)

	expected := Sign(params, secret)
	return hmac.Equal([]byte(expected), []byte(supplied))
}

// Sign computes the lowercase hex HMAC-SHA256 digest of the canonical
// message for params using secret as the key. The signature parameter,
// if present, is ignored.
func Sign(params url.Values, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(CanonicalMessage(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// CanonicalMessage renders query parameters in the proxy's canonical form:
// sorted by key in ascending byte order, each pair rendered as `key=value`
// with no separator between pairs. Within values, only `&` and `=` are
// re-encoded (as %26 and %3D); everything else, including spaces, stays as
// decoded. Multi-valued keys use the first value.
func CanonicalMessage(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == signatureParam {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(escapeValue(params.Get(k)))
	}
	return b.String()
}

// escapeValue re-encodes the two characters that would corrupt the
// canonical string.
func escapeValue(v string) string {
	v = strings.ReplaceAll(v, "&", "%26")
	return strings.ReplaceAll(v, "=", "%3D")
}
