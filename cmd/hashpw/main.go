// Package main generates an Argon2id hash for ADMIN_PASSWORD_HASH.
//
// Usage:
//
//	hashpw <password>
package main

import (
	"fmt"
	"os"

	"github.com/visitlog/visitlog/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpw <password>")
		os.Exit(2)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash failed:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
