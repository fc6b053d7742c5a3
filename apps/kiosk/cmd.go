package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
	"github.com/doe69john/SmartAttendanceSMU-sub001/services/backend"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	client *backend.Client
	in     io.Reader
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  enroll -student ID [-frames DIR] - run the guided face capture and upload the frames")
	fmt.Fprintln(cli.out, "  status -student ID               - show the student's face enrollment status")
	fmt.Fprintln(cli.out, "  wipe -student ID                 - delete the student's face images and records")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	enrollCmd := flag.NewFlagSet("enroll", flag.ExitOnError)
	enrollStudent := enrollCmd.String("student", "", "The student's id.")
	enrollFrames := enrollCmd.String("frames", "", "Optional directory of jpg/png frames to replay instead of the synthetic camera.")

	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)
	statusStudent := statusCmd.String("student", "", "The student's id.")

	wipeCmd := flag.NewFlagSet("wipe", flag.ExitOnError)
	wipeStudent := wipeCmd.String("student", "", "The student's id.")

	switch args[1] {
	case "enroll":
		if err := enrollCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *enrollStudent == "" {
			enrollCmd.Usage()
			return errHelp
		}
		if err := cli.ensureToken(); err != nil {
			return err
		}
		return cli.enroll(*enrollStudent, *enrollFrames)
	case "status":
		if err := statusCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *statusStudent == "" {
			statusCmd.Usage()
			return errHelp
		}
		if err := cli.ensureToken(); err != nil {
			return err
		}
		return cli.status(*statusStudent)
	case "wipe":
		if err := wipeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *wipeStudent == "" {
			wipeCmd.Usage()
			return errHelp
		}
		if err := cli.ensureToken(); err != nil {
			return err
		}
		return cli.wipe(*wipeStudent)
	default:
		cli.printUsage()
		return errHelp
	}
}

// ensureToken loads the configured backend token, prompting for one when it is
// missing or expired.
func (cli *commandLine) ensureToken() error {
	cli.client.SetToken(cli.conf.Backend.Token)
	if !cli.client.TokenExpired() {
		return nil
	}

	fmt.Fprint(cli.out, "Enter access token:")
	token, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(token) == 0 {
		return errors.New("an access token is required")
	}
	cli.client.SetToken(string(token))
	return nil
}
