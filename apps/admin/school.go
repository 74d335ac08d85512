package main

import (
	"context"
	"fmt"

	"github.com/myschool-rw/myschool/core/school"
)

func (cli *commandLine) addSchool(name, code string) error {
	ctx := context.Background()
	ns := school.NewSchool{Name: name, Code: code}
	if err := ns.Validate(ctx, cli.validate, cli.schSvc); err != nil {
		return err
	}
	sch, err := cli.schSvc.Register(ctx, ns)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "school %q registered with ID %d\n", sch.Name, sch.ID)
	return nil
}

func (cli *commandLine) listSchools() error {
	schools, err := cli.schSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	for _, sch := range schools {
		fmt.Fprintf(cli.out, "%d\t%s\t%s\tactive=%t\tsos=%t\n", sch.ID, sch.Name, sch.Code, sch.IsActive, sch.IsSOS())
	}
	return nil
}

func (cli *commandLine) deleteSchool(id int) error {
	ctx := context.Background()
	sch, err := cli.schSvc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err = cli.schSvc.Delete(ctx, sch.ID); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "school %q deleted\n", sch.Name)
	return nil
}
