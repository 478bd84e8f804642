package main

import "github.com/forPelevin/slidecut/internal/cli"

func main() { cli.Main() }
