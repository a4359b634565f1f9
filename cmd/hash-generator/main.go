// Command hash-generator prints bcrypt hashes for seeding user rows by hand.
// Passwords come from the arguments, or one per line on stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", 10, "bcrypt cost")
	flag.Parse()

	passwords := flag.Args()
	if len(passwords) == 0 {
		var err error
		if passwords, err = readLines(os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "reading stdin: %v\n", err)
			os.Exit(1)
		}
	}

	if failed := generate(os.Stdout, auth.NewBcryptHasher(*cost), passwords); failed > 0 {
		os.Exit(1)
	}
}

// generate writes one "password<TAB>hash" line per input and returns the
// number of passwords that were rejected.
func generate(w io.Writer, hasher auth.PasswordHasher, passwords []string) int {
	failed := 0
	for _, p := range passwords {
		if err := checkPassword(p); err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", p, err)
			failed++
			continue
		}
		hash, err := hasher.Hash(p)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", p, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", p, hash)
	}
	return failed
}

// checkPassword applies the sign-up length bounds.
func checkPassword(p string) error {
	switch {
	case len(p) < domain.MinPasswordLength:
		return domain.ErrPasswordTooShort
	case len(p) > domain.MaxPasswordLength:
		return domain.ErrPasswordTooLong
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
