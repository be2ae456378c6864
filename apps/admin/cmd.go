package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/certificate"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db        *sql.DB
	conf      *core.Config
	out       io.Writer
	validate  *validator.Validate
	usrSvc    *user.Service
	usrRepo   user.Repository
	courseSvc *course.Service
	certSvc   *certificate.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose migration commands (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL [-role ROLE] - create a user (roles: admin, instructor, student)")
	fmt.Fprintln(cli.out, "  token -email EMAIL - print an API token for the user")
	fmt.Fprintln(cli.out, "  seedcourse -title TITLE -instructor EMAIL [-category CATEGORY] [-lessons N] - create a course and its lessons")
	fmt.Fprintln(cli.out, "  reconcile - issue the certificates of completed courses that have none")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	var addUserRoles roleFlags
	addUserCmd.Var(&addUserRoles, "role", "A role of the user, can be repeated (admin, instructor, student).")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenEmail := tokenCmd.String("email", "", "The user's email.")

	seedCourseCmd := flag.NewFlagSet("seedcourse", flag.ContinueOnError)
	seedCourseTitle := seedCourseCmd.String("title", "", "The course title.")
	seedCourseCategory := seedCourseCmd.String("category", "", "The course category.")
	seedCourseInstructor := seedCourseCmd.String("instructor", "", "The instructor's email.")
	seedCourseLessons := seedCourseCmd.Int("lessons", 1, "The number of lessons.")

	for _, fs := range []*flag.FlagSet{addUserCmd, tokenCmd, seedCourseCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail, addUserRoles)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenEmail == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenEmail)
	case "seedcourse":
		if err := seedCourseCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *seedCourseTitle == "" || *seedCourseInstructor == "" || *seedCourseLessons < 1 {
			seedCourseCmd.Usage()
			return errHelp
		}
		return cli.seedCourse(*seedCourseTitle, *seedCourseCategory, *seedCourseInstructor, *seedCourseLessons)
	case "reconcile":
		return cli.reconcile()
	default:
		cli.printUsage()
		return errHelp
	}
}

// roleFlags collects repeated -role flags.
type roleFlags []string

func (r *roleFlags) String() string {
	return fmt.Sprint(*r)
}

func (r *roleFlags) Set(value string) error {
	*r = append(*r, value)
	return nil
}
