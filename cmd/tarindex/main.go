// Command tarindex indexes uncompressed tar archives and retrieves single
// members through the index without scanning the archives.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
