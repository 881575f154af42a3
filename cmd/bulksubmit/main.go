package main

import "unicare-bulksubmit/cli"

func main() {
	cli.Execute()
}
