package devices

import (
	"fmt"
	"strings"
)

var keyAliases = map[string]string{
	"home":        "KEYCODE_HOME",
	"back":        "KEYCODE_BACK",
	"menu":        "KEYCODE_MENU",
	"enter":       "KEYCODE_ENTER",
	"power":       "KEYCODE_POWER",
	"wakeup":      "KEYCODE_WAKEUP",
	"volume_up":   "KEYCODE_VOLUME_UP",
	"volume_down": "KEYCODE_VOLUME_DOWN",
	"dpad_up":     "KEYCODE_DPAD_UP",
	"dpad_down":   "KEYCODE_DPAD_DOWN",
	"dpad_left":   "KEYCODE_DPAD_LEFT",
	"dpad_right":  "KEYCODE_DPAD_RIGHT",
	"dpad_center": "KEYCODE_DPAD_CENTER",
	"app_switch":  "KEYCODE_APP_SWITCH",
}

// KeyCode normalizes a key name to something `input keyevent` accepts.
func KeyCode(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("key is required")
	}

	if strings.HasPrefix(key, "KEYCODE_") {
		return key, nil
	}

	if isDigits(key) {
		return key, nil
	}

	if code, ok := keyAliases[strings.ToLower(key)]; ok {
		return code, nil
	}

	if strings.HasPrefix(strings.ToUpper(key), "KEYCODE_") {
		return strings.ToUpper(key), nil
	}

	return "", fmt.Errorf("unsupported key: %s", key)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// escapeInputText prepares text for `input text`, which splits on spaces and
// runs through the device shell.
func escapeInputText(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case ' ':
			b.WriteString("%s")
		case '\'', '"', '\\', '(', ')', '&', '<', '>', ';', '|', '*', '$', '`', '~', '?', '!', '#':
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
