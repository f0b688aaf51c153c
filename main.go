package main

import (
	"spectrum/cmd"
	applog "spectrum/internal/log"
	"spectrum/pkg/build"
)

func main() {
	if err := build.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	if err := cmd.Execute(); err != nil {
		applog.Fatalf("%v", err)
	}
}
