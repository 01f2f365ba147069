package main

// version can be overridden at build time with -ldflags.
var version = "dev"

func main() {
	rootCmd.Version = version
	Execute()
}
