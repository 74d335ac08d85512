package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/student"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf     *core.Config
	db       *sql.DB // nil with the memory driver
	schSvc   school.Service
	stdSvc   student.Service
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                  - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  addschool -name NAME -code CODE         - register a school")
	fmt.Fprintln(cli.out, "  listschools                             - list registered schools")
	fmt.Fprintln(cli.out, "  deleteschool -id ID                     - delete a school with its students and visits")
	fmt.Fprintln(cli.out, "  importstudents -school NAME -file PATH  - import an xlsx roster into a school")
	fmt.Fprintln(cli.out, "  token -school NAME | -system NAME       - issue an admin token")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSchoolCmd := cli.newFlagSet("addschool")
	addSchoolName := addSchoolCmd.String("name", "", "The school's name.")
	addSchoolCode := addSchoolCmd.String("code", "", "The school's code. Code \"SOS\" enables car management.")

	deleteSchoolCmd := cli.newFlagSet("deleteschool")
	deleteSchoolID := deleteSchoolCmd.Int("id", 0, "The school's ID.")

	importCmd := cli.newFlagSet("importstudents")
	importSchool := importCmd.String("school", "", "The school's name.")
	importFile := importCmd.String("file", "", "Path to an xlsx file with student_name and class_name columns.")

	tokenCmd := cli.newFlagSet("token")
	tokenSchool := tokenCmd.String("school", "", "Issue a token for the admins of this school.")
	tokenSystem := tokenCmd.String("system", "", "Issue a system admin token for this name.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addschool":
		if err := addSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSchoolName == "" || *addSchoolCode == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		return cli.addSchool(*addSchoolName, *addSchoolCode)

	case "listschools":
		return cli.listSchools()

	case "deleteschool":
		if err := deleteSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deleteSchoolID <= 0 {
			deleteSchoolCmd.Usage()
			return errHelp
		}
		return cli.deleteSchool(*deleteSchoolID)

	case "importstudents":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importSchool == "" || *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importStudents(*importSchool, *importFile)

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if (*tokenSchool == "") == (*tokenSystem == "") { // exactly one
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenSchool, *tokenSystem)

	default:
		cli.printUsage()
		return errHelp
	}
}
