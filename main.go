package main

import "github.com/iksnae/fileconv/cmd"

func main() {
	cmd.Execute()
}
