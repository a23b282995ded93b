package google

// apiKeyHeader carries the API key outside the URL so it never shows up in
// request errors.
func apiKeyHeader(key string) map[string]string {
	return map[string]string{"X-Goog-Api-Key": key}
}
