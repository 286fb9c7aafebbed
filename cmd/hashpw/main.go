// Command hashpw generates a bcrypt hash for a password, useful for seeding
// test fixtures or creating accounts by hand.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/taskhub-api/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-cost N] <password>\n", os.Args[0])
		os.Exit(2)
	}

	hasher := auth.NewBcryptHasher(*cost)
	hash, err := hasher.Hash(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
