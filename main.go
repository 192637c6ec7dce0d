package main

import "github.com/buildboard/buildboard/cmd/root"

func main() {
	root.Execute()
}
