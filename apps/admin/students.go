package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	xlsxsvc "github.com/myschool-rw/myschool/services/spreadsheet"
)

func (cli *commandLine) importStudents(schoolName, path string) error {
	ctx := context.Background()
	sch, err := cli.schSvc.GetByName(ctx, schoolName)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer f.Close()

	rows, err := xlsxsvc.ReadRoster(f)
	if err != nil {
		return err
	}
	res, err := cli.stdSvc.Import(ctx, sch.ID, rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d students added, %d skipped\n", res.Added, res.Skipped)
	return nil
}
