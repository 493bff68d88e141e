package main

import "github.com/mohanavadivelu2/automation-framework/pkg/cli"

func main() {
	cli.Execute()
}
