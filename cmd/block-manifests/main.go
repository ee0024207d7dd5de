package main

import "block-manifests/internal/cli"

func main() {
	cli.Execute()
}
