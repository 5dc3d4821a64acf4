// Helper script: base64-encode a service account key so the value can be
// pasted into a single GOOGLE_SERVICE_ACCOUNT_KEY environment variable.
//
// Usage:
//
//	encode-key [path/to/service-account-key.json]
package main

import (
	"encoding/base64"
	"fmt"
	"os"
)

func main() {
	path := "service-account-key.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	keyJSON, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}

	encoded := base64.StdEncoding.EncodeToString(keyJSON)
	fmt.Println("Set the following value as GOOGLE_SERVICE_ACCOUNT_KEY:")
	fmt.Println()
	fmt.Println(encoded)
	fmt.Printf("\n(%d characters)\n", len(encoded))
}
