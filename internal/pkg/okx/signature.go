package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Sign returns the base64 HMAC-SHA256 of timestamp+method+requestPath+body,
// as expected in the OK-ACCESS-SIGN header. requestPath includes the query.
func Sign(timestamp, method, requestPath, body, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// FormatTimestamp renders t in the ISO-8601 millisecond form OKX expects.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
