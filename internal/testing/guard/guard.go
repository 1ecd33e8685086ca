// Package guard switches the process into test mode when imported, so
// entrypoints and wiring helpers skip network side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("SALESDASH_TEST_MODE") == "" {
			_ = os.Setenv("SALESDASH_TEST_MODE", "1")
		}
	})
}
