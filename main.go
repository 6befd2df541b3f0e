package main

import "github.com/llehouerou/folio/internal/cli"

func main() {
	cli.Execute()
}
