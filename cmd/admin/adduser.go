package main

import (
	"context"
	"fmt"
	"strings"

	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/internal/user"
)

// addUser 创建已验证的本地账号
func (cli *commandLine) addUser(email, uname string, role userModel.Role, pwd string) error {
	req := user.CreateUserRequest{
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Role:       role,
		Password:   &pwd,
		IsVerified: true,
	}
	if uname = strings.TrimSpace(uname); uname != "" {
		req.Username = &uname
	}

	u, err := cli.users.Create(context.Background(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created user #%d %s (%s)\n", u.ID, u.DisplayName(), u.Role)
	return nil
}
