package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo holds parsed information from a User-Agent string. The approval
// and rejection links land in the operator's inbox, so knowing what clicked
// them matters when reviewing the audit trail.
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, desktop
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	BrowserVer string `json:"browser_ver"`
	IsBot      bool   `json:"is_bot"` // mail scanners prefetch links
	Raw        string `json:"raw"`
}

// ParseUserAgent parses a User-Agent string and extracts device information
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" || userAgent == "Unknown" {
		return DeviceInfo{
			DeviceType: "unknown",
			OS:         "Unknown",
			Browser:    "Unknown",
			Raw:        userAgent,
		}
	}

	parser := ua.New(userAgent)

	info := DeviceInfo{
		Raw:   userAgent,
		IsBot: parser.Bot(),
		OS:    getOS(parser),
	}
	info.Browser, info.BrowserVer = parser.Browser()
	if info.Browser == "" {
		info.Browser = "Unknown"
	}

	if parser.Mobile() {
		info.DeviceType = "mobile"
	} else {
		info.DeviceType = "desktop"
	}

	return info
}

func getOS(parser *ua.UserAgent) string {
	osInfo := parser.OSInfo()
	if osInfo.Name == "" {
		return "Unknown"
	}
	if osInfo.Version != "" {
		return strings.TrimSpace(osInfo.Name + " " + osInfo.Version)
	}
	return osInfo.Name
}
