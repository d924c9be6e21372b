// Package useragent derives browser, OS and device information
// from raw User-Agent header strings.
package useragent

import (
	ua "github.com/mileusna/useragent"

	"github.com/vadimbarashkov/shortlink/internal/models"
)

// Device type labels used across click events and analytics breakdowns.
const (
	DeviceTypeUnknown = "Unknown"
	DeviceTypeDesktop = "Desktop"
	DeviceTypeMobile  = "Mobile"
	DeviceTypeTablet  = "Tablet"
	DeviceTypeBot     = "Bot"
)

const unknown = "Unknown"

// Parse extracts browser, OS and device details from a raw User-Agent
// string. Missing fields default to "Unknown"; an empty header yields a
// fully unknown result.
func Parse(rawUA string) models.UserAgentInfo {
	info := models.UserAgentInfo{
		BrowserName: unknown,
		OSName:      unknown,
		DeviceName:  unknown,
		DeviceType:  DeviceTypeUnknown,
	}

	if rawUA == "" {
		return info
	}

	parsed := ua.Parse(rawUA)

	if parsed.Name != "" {
		info.BrowserName = parsed.Name
	}
	info.BrowserVersion = parsed.Version

	if parsed.OS != "" {
		info.OSName = parsed.OS
	}
	info.OSVersion = parsed.OSVersion

	if parsed.Device != "" {
		info.DeviceName = parsed.Device
	}

	info.DeviceType = deviceType(parsed)

	return info
}

// deviceType checks the bot, tablet and mobile markers before falling
// back to Desktop, so phones reporting desktop-like engines are not
// misclassified.
func deviceType(parsed ua.UserAgent) string {
	switch {
	case parsed.Bot:
		return DeviceTypeBot
	case parsed.Tablet:
		return DeviceTypeTablet
	case parsed.Mobile:
		return DeviceTypeMobile
	case parsed.Desktop:
		return DeviceTypeDesktop
	default:
		return DeviceTypeUnknown
	}
}
