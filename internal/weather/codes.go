package weather

// condition pairs the human-readable text for a WMO weather code with the
// badge icon code that best represents it.
type condition struct {
	text string
	icon string
}

// conditions maps WMO weather interpretation codes to display text and
// icons. Codes not listed fall back to "Unknown" with no icon.
var conditions = map[int]condition{
	0:  {"Clear", "sun"},
	1:  {"Mainly Clear", "sun"},
	2:  {"Partly Cloudy", "cloud"},
	3:  {"Overcast", "cloud"},
	45: {"Fog", "cloud"},
	48: {"Depositing Rime Fog", "cloud"},
	51: {"Light Drizzle", "rain"},
	53: {"Moderate Drizzle", "rain"},
	55: {"Dense Drizzle", "rain"},
	56: {"Light Freezing Drizzle", "rain"},
	57: {"Dense Freezing Drizzle", "rain"},
	61: {"Slight Rain", "rain"},
	63: {"Moderate Rain", "rain"},
	65: {"Heavy Rain", "rain"},
	66: {"Light Freezing Rain", "rain"},
	67: {"Heavy Freezing Rain", "rain"},
	71: {"Slight Snow", "snow"},
	73: {"Moderate Snow", "snow"},
	75: {"Heavy Snow", "snow"},
	77: {"Snow Grains", "snow"},
	80: {"Slight Rain Showers", "rain"},
	81: {"Moderate Rain Showers", "rain"},
	82: {"Violent Rain Showers", "rain"},
	85: {"Slight Snow Showers", "snow"},
	86: {"Heavy Snow Showers", "snow"},
	95: {"Thunderstorm", "rain"},
	96: {"Thunderstorm Light Hail", "rain"},
	99: {"Thunderstorm Heavy Hail", "rain"},
}

// ConditionText returns the readable text for a WMO weather code.
func ConditionText(code int) string {
	if c, ok := conditions[code]; ok {
		return c.text
	}
	return "Unknown"
}

// ConditionIcon returns the badge icon code for a WMO weather code, or ""
// when none fits.
func ConditionIcon(code int) string {
	if c, ok := conditions[code]; ok {
		return c.icon
	}
	return ""
}
