// Package clipboard copies generated source to the system clipboard.
package clipboard

import (
	"fmt"
	"sync"

	xclipboard "golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// Copy places text on the system clipboard. Initialization happens on the
// first call; on headless systems it fails and the error is returned on
// every call.
func Copy(text string) error {
	initOnce.Do(func() {
		initErr = xclipboard.Init()
	})
	if initErr != nil {
		return fmt.Errorf("clipboard unavailable: %w", initErr)
	}
	xclipboard.Write(xclipboard.FmtText, []byte(text))
	return nil
}
