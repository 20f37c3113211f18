package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker audit | schedule")
	}

	switch os.Args[1] {
	case "audit":
		RunAudit()
	case "schedule":
		RunSchedule()
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
