package main

import "github.com/ConfabulousDev/resume-insights/internal/cli"

func main() {
	cli.Execute()
}
