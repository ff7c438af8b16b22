package main

import (
	"log"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
