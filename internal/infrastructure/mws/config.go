package mws

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrMissingAccessKey = errors.New("mws: access key is required")
	ErrMissingSecretKey = errors.New("mws: secret key is required")
	ErrMissingSellerID  = errors.New("mws: seller ID is required")
	ErrMissingHost      = errors.New("mws: endpoint host is required")
)

// Credentials holds everything needed to sign requests for one seller
// account.
type Credentials struct {
	// AccessKey is the AWS access key ID
	AccessKey string
	// SecretKey signs the canonical request
	SecretKey string
	// SellerID is the merchant identifier, sent as SellerId
	SellerID string
	// AuthToken is the MWS authorization token, sent as MWSAuthToken
	AuthToken string
	// Host is the regional MWS endpoint (e.g. mws-eu.amazonservices.com)
	Host string
}

// Validate checks that the credentials are complete.
func (c *Credentials) Validate() error {
	if c.AccessKey == "" {
		return ErrMissingAccessKey
	}
	if c.SecretKey == "" {
		return ErrMissingSecretKey
	}
	if c.SellerID == "" {
		return ErrMissingSellerID
	}
	if c.Host == "" {
		return ErrMissingHost
	}
	return nil
}

// Sign computes the Signature Version 2 value for a parameter set: an
// HMAC-SHA256 over "POST\nhost\npath\ncanonicalQuery", base64 encoded. The
// Signature parameter itself is excluded from the canonical query.
func (c *Credentials) Sign(path string, params url.Values) string {
	canonical := canonicalQuery(params)
	toSign := strings.Join([]string{"POST", c.Host, path, canonical}, "\n")

	mac := hmac.New(sha256.New, []byte(c.SecretKey))
	mac.Write([]byte(toSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignedQuery returns the canonical query with the Signature parameter
// appended, ready to be sent as a request body.
func (c *Credentials) SignedQuery(path string, params url.Values) string {
	signature := c.Sign(path, params)
	return canonicalQuery(params) + "&Signature=" + percentEncode(signature)
}

// canonicalQuery sorts parameters by byte order and percent-encodes per
// RFC 3986. url.Values.Encode is not usable here: it encodes spaces as '+'
// and the signature must match Amazon's canonical form exactly.
func canonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "Signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(percentEncode(k))
		sb.WriteByte('=')
		sb.WriteString(percentEncode(params.Get(k)))
	}
	return sb.String()
}

// percentEncode implements RFC 3986 encoding: unreserved characters pass
// through, everything else becomes %XX (space is %20, not '+').
func percentEncode(s string) string {
	const upperhex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case 'A' <= b && b <= 'Z', 'a' <= b && b <= 'z', '0' <= b && b <= '9',
			b == '-', b == '_', b == '.', b == '~':
			sb.WriteByte(b)
		default:
			sb.WriteByte('%')
			sb.WriteByte(upperhex[b>>4])
			sb.WriteByte(upperhex[b&0xf])
		}
	}
	return sb.String()
}
