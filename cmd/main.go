package main

import (
	"github.com/dyike/MomentumGo/internal/cli"
)

func main() {
	cli.Run()
}
