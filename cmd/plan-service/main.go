package main

import (
	"os"

	"github.com/euangelion/plan-service/planservice"
)

func main() {
	if err := planservice.Run(); err != nil {
		os.Exit(1)
	}
}
