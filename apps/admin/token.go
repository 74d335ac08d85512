package main

import (
	"context"
	"fmt"

	echoapi "github.com/myschool-rw/myschool/apps/api/echo"
)

// token prints a bearer token for the admins of `schoolName`, or for the system admin `systemName`.
func (cli *commandLine) token(schoolName, systemName string) error {
	var claims *echoapi.Claims
	if systemName != "" {
		claims = echoapi.NewSystemClaims(cli.conf, systemName)
	} else {
		sch, err := cli.schSvc.GetByName(context.Background(), schoolName)
		if err != nil {
			return err
		}
		claims = echoapi.NewSchoolClaims(cli.conf, sch)
	}

	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
