//go:build !linux

package clipboard

import sysclip "golang.design/x/clipboard"

// clipboardAvailable indicates if clipboard functionality is available on this platform
func clipboardAvailable() bool {
	return true
}

// initClipboard initializes the clipboard library
func initClipboard() error {
	return sysclip.Init()
}

// writeToClipboard writes text to the system clipboard
func writeToClipboard(text string) error {
	sysclip.Write(sysclip.FmtText, []byte(text))
	return nil
}
