package main

import "github.com/ALLAVO/Hackathon-MyAiGrandma/internal/cli"

func main() {
	cli.Execute()
}
