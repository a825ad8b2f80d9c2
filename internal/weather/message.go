package weather

import "fmt"

// ComposeMessage formats a badge message for the observation, e.g.
// "Potsdam: 15C :sun: Clear". The condition icon token is included only
// when hasIcon reports the registry advertises it, so the composed message
// always passes gateway validation. The temperature is rendered without a
// degree sign; the badge character class is plain ASCII.
func ComposeMessage(city string, obs *Observation, hasIcon func(code string) bool) string {
	if obs == nil {
		return "Weather unavailable"
	}

	text := ConditionText(obs.WeatherCode)
	icon := ConditionIcon(obs.WeatherCode)

	if icon != "" && hasIcon != nil && hasIcon(icon) {
		return fmt.Sprintf("%s: %.0fC :%s: %s", city, obs.TempC, icon, text)
	}
	return fmt.Sprintf("%s: %.0fC %s", city, obs.TempC, text)
}
