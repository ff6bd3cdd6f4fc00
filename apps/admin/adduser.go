package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/user"
)

// addUser updates or creates an active user.User with the given role
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)

	usr := user.User{Role: role}
	if !usr.HasRole(user.AllRoles...) {
		return fmt.Errorf("invalid role %q", role)
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{Email: email}
	}
	usr.Name = name
	usr.Role = role
	usr.IsActive = true
	if err = user.CheckPasswordPolicy(pwd, usr); err != nil {
		return err
	}

	_, err = cli.usrSvc.UpdateOrCreate(ctx, usr, pwd)
	return err
}
