// Command validate loads a content catalog directory and reports
// every integrity problem it finds: duplicate ids, dangling
// references, unknown resource names, malformed probabilities.
package main

import (
	"fmt"
	"os"

	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
)

func main() {
	dir := "./data"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	fmt.Printf("Validating catalogs in %s...\n", dir)

	catalogs, err := catalog.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalogs: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded %d departments, %d policies, %d events, %d endings\n",
		len(catalogs.Departments), len(catalogs.Policies),
		len(catalogs.Events), len(catalogs.Endings))

	report := catalogs.Check()
	for _, warning := range report.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	if len(report.Errors) > 0 {
		for _, e := range report.Errors {
			fmt.Fprintf(os.Stderr, "  error: %s\n", e)
		}
		fmt.Fprintf(os.Stderr, "Validation failed with %d error(s)\n", len(report.Errors))
		os.Exit(1)
	}

	fmt.Println("Catalogs are valid!")
}
