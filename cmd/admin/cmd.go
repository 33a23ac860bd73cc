package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/internal/reconcile"
	"terminal-terrace/testmaker/internal/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// userAdmin 运维命令需要的用户操作
type userAdmin interface {
	Create(ctx context.Context, req user.CreateUserRequest) (*userModel.User, error)
	GetByUsername(ctx context.Context, username string) (*userModel.User, error)
	GetByEmail(ctx context.Context, email string) (*userModel.User, error)
	ResetPassword(ctx context.Context, id uint, newPassword string) error
}

type commandLine struct {
	users userAdmin
	sweep func(ctx context.Context, dryRun bool) (reconcile.Report, error)
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL [-username USERNAME] [-role STUDENT|TEACHER|ADMIN] - create a user, the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  sweep [-dry-run] - delete objects no task or answer references")
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserUname := addUserCmd.String("username", "", "The user's username (optional).")
	addUserRole := addUserCmd.String("role", string(userModel.RoleStudent), "STUDENT, TEACHER or ADMIN.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	sweepCmd := flag.NewFlagSet("sweep", flag.ContinueOnError)
	sweepCmd.SetOutput(cli.out)
	sweepDryRun := sweepCmd.Bool("dry-run", false, "Only list orphaned objects.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserEmail, *addUserUname, userModel.Role(*addUserRole), pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "sweep":
		if err := sweepCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.runSweep(*sweepDryRun)

	default:
		cli.printUsage()
		return errHelp
	}
}
