package service

import (
	"strings"

	"link-tracker/internal/models"
)

// Канонические значения классификации
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"

	BrowserChrome  = "Chrome"
	BrowserFirefox = "Firefox"
	BrowserSafari  = "Safari"
	BrowserEdge    = "Edge"
	BrowserOpera   = "Opera"
	BrowserOther   = "Other"

	OSWindows = "Windows"
	OSMacOS   = "macOS"
	OSLinux   = "Linux"
	OSAndroid = "Android"
	OSiOS     = "iOS"
	OSOther   = "Other"
)

// ExtractSignals классифицирует user-agent строку в {device, browser, os}.
// Чистая тотальная функция: любой вход, включая пустой, даёт ровно одно
// значение на категорию и никогда не паникует.
func ExtractSignals(userAgent string) models.ClientSignals {
	ua := strings.ToLower(userAgent)

	return models.ClientSignals{
		DeviceType: classifyDevice(ua),
		Browser:    classifyBrowser(ua),
		OS:         classifyOS(ua),
	}
}

// classifyDevice: планшетные маркеры имеют приоритет над мобильными,
// потому что UA планшетов тоже содержит "mobile"/"android"
func classifyDevice(ua string) string {
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return DeviceTablet
	}
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone") {
		return DeviceMobile
	}
	return DeviceDesktop
}

// classifyBrowser: упорядоченные взаимоисключающие проверки.
// Firefox первым; "edg" раньше "chrome", потому что UA Edge содержит
// Chrome-токен; "opr"/"opera" раньше "chrome" по той же причине;
// Safari только при отсутствии Chrome-токена - почти все не-Safari
// браузеры встраивают "Safari" в свой UA.
func classifyBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "firefox"):
		return BrowserFirefox
	case strings.Contains(ua, "edg"):
		return BrowserEdge
	case strings.Contains(ua, "opr") || strings.Contains(ua, "opera"):
		return BrowserOpera
	case strings.Contains(ua, "chrome"):
		return BrowserChrome
	case strings.Contains(ua, "safari"):
		return BrowserSafari
	default:
		return BrowserOther
	}
}

// classifyOS: упорядоченные проверки; Linux раньше Android намеренно
// сохраняет поведение исходной классификации
func classifyOS(ua string) string {
	switch {
	case strings.Contains(ua, "windows"):
		return OSWindows
	case strings.Contains(ua, "mac"):
		return OSMacOS
	case strings.Contains(ua, "linux"):
		return OSLinux
	case strings.Contains(ua, "android"):
		return OSAndroid
	case strings.Contains(ua, "ios") || strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		return OSiOS
	default:
		return OSOther
	}
}
