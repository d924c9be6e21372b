package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	chromeDesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	safariIPhoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) " +
		"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	safariIPadUA = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) " +
		"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestParse(t *testing.T) {
	t.Run("desktop browser", func(t *testing.T) {
		info := Parse(chromeDesktopUA)

		assert.Equal(t, "Chrome", info.BrowserName)
		assert.Equal(t, "Windows", info.OSName)
		assert.Equal(t, DeviceTypeDesktop, info.DeviceType)
	})

	t.Run("mobile browser", func(t *testing.T) {
		info := Parse(safariIPhoneUA)

		assert.Equal(t, "Safari", info.BrowserName)
		assert.Equal(t, "iOS", info.OSName)
		assert.Equal(t, DeviceTypeMobile, info.DeviceType)
	})

	t.Run("tablet detected before mobile", func(t *testing.T) {
		info := Parse(safariIPadUA)

		assert.Equal(t, DeviceTypeTablet, info.DeviceType)
	})

	t.Run("bot", func(t *testing.T) {
		info := Parse(googlebotUA)

		assert.Equal(t, DeviceTypeBot, info.DeviceType)
	})

	t.Run("empty header", func(t *testing.T) {
		info := Parse("")

		assert.Equal(t, "Unknown", info.BrowserName)
		assert.Equal(t, "Unknown", info.OSName)
		assert.Equal(t, "Unknown", info.DeviceName)
		assert.Equal(t, DeviceTypeUnknown, info.DeviceType)
	})

	t.Run("garbage header does not panic", func(t *testing.T) {
		info := Parse("not a real user agent at all")

		assert.NotEmpty(t, info.BrowserName)
		assert.NotEmpty(t, info.DeviceType)
	})
}
