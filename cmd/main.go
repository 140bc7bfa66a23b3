package main

import (
	"os"

	"photosynthesis-lab/internal/cli"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := cli.Execute(); err != nil {
		logrus.WithError(err).Error("photosynthesis-lab exited")
		os.Exit(1)
	}
}
