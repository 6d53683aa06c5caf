// Command tourctl drives the tour-booking client core from a terminal: it
// signs in against the backend, keeps the session and cart in the local
// store, and previews coupons against the cart.
package main

import (
	"context"
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if err := execute(context.Background(), os.Args[1:], nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
