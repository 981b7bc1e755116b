package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("RODA_AUTH_TEST_MODE") == "" {
			_ = os.Setenv("RODA_AUTH_TEST_MODE", "1")
		}
	})
}
