package main

import (
	"context"

	"github.com/trezcool/soma/core/user"
)

// resetPassword sets a new password, logging the user out of every session.
func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = user.CheckPasswordPolicy(pwd, usr); err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}
