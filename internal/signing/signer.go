// -----------------------------------------------------------------------
// Payload Signer - canonical query encoding and HMAC-SHA1 checkcodes
// -----------------------------------------------------------------------

// Package signing builds the signed form bodies the settings API requires.
// The API recomputes the checkcode server-side, so the canonical encoding
// here (sorted keys, %20 for spaces) must be byte-exact.
package signing

import (
	"crypto/hmac"
	"crypto/sha1"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Secret is the shared key the settings API verifies checkcodes against.
// It is fixed for the target deployment, not a runtime parameter.
const Secret = "mys3cr3t"

// Payload is a signed request body derived from a field map and a timestamp.
type Payload struct {
	Canonical string // sorted key=value pairs joined by "&"
	Checkcode string // uppercase hex HMAC-SHA1 of Canonical
	Body      string // Canonical + "&checkcode=" + Checkcode
	Timestamp int64
}

// Sign produces the signed payload for the given fields. Any "timestamp" key
// already present in fields is overwritten with nowSeconds before signing.
// Identical fields and nowSeconds always yield an identical payload.
func Sign(fields map[string]string, secret string, nowSeconds int64) Payload {
	combined := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		combined[k] = v
	}
	combined["timestamp"] = strconv.FormatInt(nowSeconds, 10)

	keys := make([]string, 0, len(combined))
	for k := range combined {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+encodeComponent(combined[k]))
	}
	canonical := strings.Join(pairs, "&")

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(canonical))
	checkcode := fmt.Sprintf("%X", mac.Sum(nil))

	return Payload{
		Canonical: canonical,
		Checkcode: checkcode,
		Body:      canonical + "&checkcode=" + checkcode,
		Timestamp: nowSeconds,
	}
}

// encodeComponent percent-encodes a value the way URL component encoding
// does: reserved characters escaped and spaces as %20, never "+".
func encodeComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
