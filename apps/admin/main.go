package main

import (
	"log"
	"os"

	"github.com/myschool-rw/myschool/apps/shared"
	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/student"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	stores, err := shared.OpenStores(conf)
	errAndDie(err)

	validate, _ := shared.NewValidator()

	// start CLI
	cli := commandLine{
		conf:     conf,
		db:       stores.DB,
		schSvc:   school.NewService(stores.Schools),
		stdSvc:   student.NewService(stores.Students),
		validate: validate,
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	_ = stores.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
