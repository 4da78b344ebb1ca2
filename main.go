package main

import (
	"os"

	"linkpurge/internal/app"
)

func main() {
	os.Exit(app.Run())
}
