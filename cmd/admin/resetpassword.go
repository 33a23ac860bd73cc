package main

import (
	"context"
	"fmt"
	"strings"

	userModel "terminal-terrace/testmaker/internal/model/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()

	var (
		u   *userModel.User
		err error
	)
	if strings.Contains(uname, "@") {
		u, err = cli.users.GetByEmail(ctx, uname)
	} else {
		u, err = cli.users.GetByUsername(ctx, uname)
	}
	if err != nil {
		return err
	}
	if err := cli.users.ResetPassword(ctx, u.ID, pwd); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password reset for %s\n", u.DisplayName())
	return nil
}
