package ui

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// icon and urgency names of the freedesktop notification spec
const (
	iconError       = "dialog-error"
	urgencyCritical = "critical"
)

// NotifyError sends a critical desktop notification to the user of the current display session.
// Headless systems (no DISPLAY) are silently skipped, relay controllers usually run on those.
func NotifyError(title, text string) {
	display, exists := os.LookupEnv("DISPLAY")
	if !exists {
		Debug("Skipping notification '%s', missing env variable 'DISPLAY'", title)
		return
	}

	user, uid, err := displaySessionUser(display)
	if err != nil {
		Warning("Cannot send notification: %v", err)
		return
	}

	cmd := exec.Command("sudo", "-u", user,
		"DISPLAY="+display,
		"DBUS_SESSION_BUS_ADDRESS=unix:path=/run/user/"+uid+"/bus",
		"notify-send",
		"-a", "lunos2go",
		"-u", urgencyCritical,
		"-i", iconError,
		title, text,
	)
	if err := cmd.Run(); err != nil {
		Error("Error sending notification: %v", err)
	}
}

// displaySessionUser returns name and uid of the user logged into display
func displaySessionUser(display string) (user string, uid string, err error) {
	output, err := exec.Command("who").Output()
	if err != nil {
		return "", "", fmt.Errorf("unable to list logged in users: %w", err)
	}
	user = findDisplayUser(string(output), display)
	if user == "" {
		return "", "", errors.New("unable to detect user of current display session")
	}

	output, err = exec.Command("id", "-u", user).Output()
	uid = strings.TrimSpace(string(output))
	if err != nil || uid == "" {
		return "", "", fmt.Errorf("unable to detect user id of %s: %v", user, err)
	}
	return user, uid, nil
}

// findDisplayUser picks the user of the first `who` line whose line or host column is display
func findDisplayUser(who string, display string) string {
	for _, line := range strings.Split(who, "\n") {
		fields := strings.Fields(line)
		for _, field := range fields[min(len(fields), 1):] {
			if field == display || field == "("+display+")" {
				return fields[0]
			}
		}
	}
	return ""
}
