// Command ledger is a terminal client for the finance tracker API.
//
//	ledger login --email alice@example.com
//	ledger add --type expense --category Groceries --amount 42.10
//	ledger monthly 2025 January --sort desc
//	ledger summary 2025
package main

import (
	"os"
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.execute(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
