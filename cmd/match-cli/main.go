// match-cli scores matchmaking fixtures offline and maintains the team search index.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
