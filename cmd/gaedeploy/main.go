package main

import (
	"log"
	"os"

	"github.com/balaji-balu/gaedeploy/cmd/gaedeploy/cli/cmd"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}
}

func main() {
	os.Exit(cmd.Execute())
}
