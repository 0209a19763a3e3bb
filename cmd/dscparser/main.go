package main

import (
	"github.com/FabienTschanz/DSCParser/internal/cli"
)

func main() {
	cli.Execute()
}
