// Command strata manages geospatial things stored with class-table
// inheritance.
package main

import "github.com/mesh-intelligence/strata/internal/cli"

func main() {
	cli.Execute()
}
