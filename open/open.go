// Package open hands URLs to the desktop's default handler.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/shortplay/shortplay/constant"
)

// Start opens input with the default handler and returns without waiting for it.
func Start(input string) error {
	cmd, err := Command(input)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command builds the platform command that opens input.
func Command(input string) (*exec.Cmd, error) {
	return commandFor(runtime.GOOS, input)
}

func commandFor(goos, input string) (*exec.Cmd, error) {
	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", input), nil
	case constant.Darwin:
		return exec.Command("open", input), nil
	case constant.Linux:
		return exec.Command("xdg-open", input), nil
	case constant.Android:
		return exec.Command("termux-open", input), nil
	default:
		return nil, fmt.Errorf("opening links is not supported on %s", goos)
	}
}
