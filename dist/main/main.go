package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/godns/dist"
	"github.com/phil-mansfield/godns/solver"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	con := dist.DefaultConfig
	err := dist.Run(con, dist.TaylorGreen, func(rec solver.Record) error {
		_, err := fmt.Fprintf(os.Stderr, "eng: %.16e\n", rec.Energy)
		return err
	}, log)
	if err != nil {
		log.Fatal(err.Error())
	}
}
