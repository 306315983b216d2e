package main

import "pledg/cli"

func main() {
	cli.Execute()
}
