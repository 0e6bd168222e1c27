// Command admintoken mints a console admin token and prints the bcrypt
// hash to configure as ADMIN_TOKEN_HASH. The plaintext token is shown once
// and never stored.
package main

import (
	"fmt"
	"os"

	"pkdconsole/internal/platform/secrets"
)

func main() {
	token, err := secrets.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("token:            %s\n", token)
	fmt.Printf("ADMIN_TOKEN_HASH: %s\n", hash)
}
