package web

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenBrowser opens url in the default browser. The command is started
// and not waited on.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// PortInUseHints returns shell commands for finding and killing whatever
// holds the port.
func PortInUseHints(port int) []string {
	return []string{
		fmt.Sprintf("inspect the process:  ps -p $(lsof -t -i:%d) -o pid,ppid,command", port),
		fmt.Sprintf("terminate it:        kill -9 $(lsof -t -i:%d)", port),
	}
}
