//go:build linux

package clipboard

import atotto "github.com/atotto/clipboard"

// clipboardAvailable reports whether xclip, xsel, wl-copy or termux is installed.
func clipboardAvailable() bool {
	return !atotto.Unsupported
}

// initClipboard has nothing to set up; the helper binary is resolved per call.
func initClipboard() error {
	return nil
}

// writeToClipboard pipes text to the clipboard helper.
func writeToClipboard(text string) error {
	return atotto.WriteAll(text)
}
