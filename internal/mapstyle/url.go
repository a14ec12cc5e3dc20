package mapstyle

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultMapboxAPIURL is the API host used to expand mapbox:// style URLs.
const DefaultMapboxAPIURL = "https://api.mapbox.com"

const mapboxStylePrefix = "mapbox://styles/"

var (
	mapboxStyleURL = regexp.MustCompile(`^mapbox://styles/[-a-z0-9]{2,256}/[-a-z0-9]{2,256}`)
	httpStyleURL   = regexp.MustCompile(`^https?://.+`)
)

// IsValidStyleURL reports whether u is a mapbox:// style URL or an
// http(s) URL.
func IsValidStyleURL(u string) bool {
	return mapboxStyleURL.MatchString(u) || httpStyleURL.MatchString(u)
}

// StyleDownloadURL turns a style URL into the URL to fetch.
//
// mapbox://styles/{user}/{id} expands to {apiURL}/styles/v1/{user}/{id} with
// the access token as a query parameter. URLs already pointing at the API
// host get the token appended when they lack one. Anything else is returned
// as is.
func StyleDownloadURL(styleURL, accessToken, apiURL string) string {
	if apiURL == "" {
		apiURL = DefaultMapboxAPIURL
	}
	if strings.HasPrefix(styleURL, mapboxStylePrefix) {
		styleURL = strings.TrimRight(apiURL, "/") + "/styles/v1/" + strings.TrimPrefix(styleURL, mapboxStylePrefix)
	} else if !onHost(styleURL, apiURL) {
		return styleURL
	}
	if accessToken == "" {
		return styleURL
	}
	u, err := url.Parse(styleURL)
	if err != nil {
		return styleURL
	}
	q := u.Query()
	if q.Get("access_token") == "" {
		q.Set("access_token", accessToken)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func onHost(rawURL, apiURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	api, err := url.Parse(apiURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, api.Host)
}
