// cmd/classforge/main.go
// Entrypoint for the `classforge` CLI. The file is intentionally tiny: it
// delegates all logic to the root command defined in root.go, matching the
// teacher's cmd/flarego/main.go posture of keeping side effects out of
// package-level init where tests might import the package.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
