// Command meterctl administers accounts and inspects usage directly against
// the meterd usage store.
package main

import (
	"errors"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errDenied) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
