// Package browser hands files and URLs to the desktop's default viewer.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Open opens target, a URL or a local file path, with the default handler
// for its type. It does not wait for the viewer to exit.
func Open(target string) error {
	name, args, err := command(runtime.GOOS, target)
	if err != nil {
		return err
	}
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("browser.Open: %w", err)
	}
	return nil
}

func command(goos, target string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{target}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	default:
		return "", nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}
