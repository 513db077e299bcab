package utils

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	ps "github.com/elastic/go-sysinfo"
)

// CleanString removes invalid utf-8 byte sequences
func CleanString(s string) string {
	r := strings.NewReplacer("\x00", "")
	s = r.Replace(s)
	return strings.ToValidUTF8(s, "")
}

// Hostname asks the OS through go-sysinfo and falls back to os.Hostname
func Hostname() string {
	host, err := ps.Host()
	if err == nil {
		if name := host.Info().Hostname; name != "" {
			return name
		}
	}
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

// UserAgent identifies this console to the backend
func UserAgent(version string) string {
	return fmt.Sprintf("schedctl/%s (%s/%s; %s)", version, runtime.GOOS, runtime.GOARCH, Hostname())
}
