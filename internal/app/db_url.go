package app

import (
	"net/url"
	"strings"
)

const preparedBinaryParam = "disable_prepared_binary_result"

// normalizeDBURL appends disable_prepared_binary_result=yes to the
// connection URL when the toggle asks for it. The lib/pq binary result
// path confuses the otelsql interceptor, so the flag defaults on. A URL
// that already sets the parameter is returned untouched either way.
func normalizeDBURL(dbURL string, disablePreparedBinary bool) string {
	if !disablePreparedBinary || strings.Contains(dbURL, preparedBinaryParam+"=") {
		return dbURL
	}

	separator := "?"
	if strings.Contains(dbURL, "?") {
		separator = "&"
	}
	return dbURL + separator + preparedBinaryParam + "=yes"
}

// dbNameFromURL extracts the database name for span attributes. It
// accepts both URL form (postgres://host/name) and key=value DSN form
// (dbname=name), returning "" when neither matches.
func dbNameFromURL(dbURL string) string {
	if parsed, err := url.Parse(dbURL); err == nil && parsed.Host != "" {
		return strings.TrimPrefix(parsed.Path, "/")
	}

	for _, token := range strings.Fields(dbURL) {
		if name, ok := strings.CutPrefix(token, "dbname="); ok {
			return name
		}
	}
	return ""
}
