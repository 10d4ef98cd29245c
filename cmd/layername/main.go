package main

import "github.com/dgallion1/layername/internal/cli"

func main() {
	cli.Execute()
}
