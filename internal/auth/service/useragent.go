package service

import (
	"strings"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/mssola/useragent"
)

const unknownUA = "Other"

// ParseUserAgent classifies a User-Agent header. It never fails: anything
// unrecognised is a "Desktop" running "Other", unless the raw string carries
// a Mobile marker.
func ParseUserAgent(raw string) domain.DeviceInfo {
	info := domain.DeviceInfo{
		DeviceType:  "Desktop",
		BrowserName: unknownUA,
		OSName:      unknownUA,
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return info
	}

	ua := useragent.New(raw)

	if name, version := ua.Browser(); name != "" {
		info.BrowserName = name
		info.BrowserVersion = majorVersion(version)
	}

	os := ua.OSInfo()
	info.OSName, info.OSVersion = normalizeOS(os.FullName, os.Version)

	switch {
	case ua.Bot():
		info.DeviceType = "Bot"
	case strings.Contains(raw, "iPad") || strings.Contains(raw, "Tablet") ||
		(strings.Contains(raw, "Android") && !strings.Contains(raw, "Mobile")):
		info.DeviceType = "Tablet"
	case ua.Mobile() || strings.Contains(raw, "Mobile"):
		info.DeviceType = "Mobile"
	}
	return info
}

// normalizeOS maps the library's OS strings onto the family names shown in
// the sessions list.
func normalizeOS(full, version string) (string, string) {
	version = majorVersion(strings.ReplaceAll(version, "_", "."))
	switch {
	case strings.Contains(full, "iPhone"), strings.Contains(full, "iPad"), strings.Contains(full, "iOS"):
		return "iOS", version
	case strings.Contains(full, "Android"):
		return "Android", version
	case strings.Contains(full, "Windows"):
		return "Windows", version
	case strings.Contains(full, "Mac OS"):
		return "macOS", version
	case strings.Contains(full, "CrOS"):
		return "Chrome OS", ""
	case strings.Contains(full, "Linux"):
		return "Linux", ""
	}
	return unknownUA, ""
}

func majorVersion(v string) string {
	major, _, _ := strings.Cut(v, ".")
	return major
}
