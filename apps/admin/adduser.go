package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	roles := []string{user.RoleEditor}
	if isAdmin {
		roles = user.AllRoles
	}

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Name:     uname,
			Username: uname,
			Email:    email,
			Password: pwd,
			Roles:    roles,
		})
		return err
	}

	usr.Roles = roles
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	isActive := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &isActive)
	return err
}
