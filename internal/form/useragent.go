package form

import ua "github.com/mileusna/useragent"

// SniffBrowser extracts a browser family and version from a raw User-Agent
// string, best effort. Unrecognized or empty agents yield empty strings,
// never an error, and the visitor can fill the fields in by hand.
func SniffBrowser(userAgent string) (name, version string) {
	if userAgent == "" {
		return "", ""
	}
	parsed := ua.Parse(userAgent)
	if parsed.Bot {
		return "", ""
	}
	return parsed.Name, parsed.Version
}
