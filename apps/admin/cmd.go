package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/term"

	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/tutor"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type tutorService interface {
	List(ctx context.Context, filter tutor.QueryFilter, orderings []core.DBOrdering) ([]tutor.Tutor, error)
	Create(ctx context.Context, nt tutor.NewTutor) (tutor.Tutor, error)
	Remove(ctx context.Context, id string, index int) (tutor.Tutor, error)
}

type commandLine struct {
	conf       *core.Config
	db         *mongo.Database
	tutorSvc   tutorService
	mailSvc    core.EmailService
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  hashpassword [-email EMAIL] - hash a new admin password (prompted next) for ADMIN_PASSWORD_HASH")
	fmt.Fprintln(cli.out, "  migrate up|status|legacy - create indexes, list them, or convert legacy tuition references")
	fmt.Fprintln(cli.out, "  export [-format csv|xlsx] [-search TERM] [-out FILE] [-email ADDRESS] - export tutors")
	fmt.Fprintln(cli.out, "  import -file FILE.xlsx - create tutors from a workbook laid out like the xlsx export")
	fmt.Fprintln(cli.out, "  unassign -tutor ID -index N - remove the Nth (0-based) assignment of a tutor")
}

// needsDB reports whether the command in args talks to the database.
func needsDB(args []string) bool {
	return len(args) > 1 && args[1] != "hashpassword"
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	hashPasswordCmd := flag.NewFlagSet("hashpassword", flag.ContinueOnError)
	hashPasswordEmail := hashPasswordCmd.String("email", cli.conf.Admin.Email, "The admin email. The password will be prompted next.")

	migrateCmd := flag.NewFlagSet("migrate", flag.ContinueOnError)

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportFormat := exportCmd.String("format", string(tutor.FormatCSV), "csv or xlsx")
	exportSearch := exportCmd.String("search", "", "Only export tutors whose name or qualification contains TERM.")
	exportOut := exportCmd.String("out", "", "Write the export to FILE instead of stdout.")
	exportEmail := exportCmd.String("email", "", "Email the export as an attachment to ADDRESS.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "The workbook to import.")

	unassignCmd := flag.NewFlagSet("unassign", flag.ContinueOnError)
	unassignTutor := unassignCmd.String("tutor", "", "The tutor id.")
	unassignIndex := unassignCmd.Int("index", -1, "The position of the assignment to remove.")

	for _, fs := range []*flag.FlagSet{hashPasswordCmd, migrateCmd, exportCmd, importCmd, unassignCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "hashpassword":
		if err := hashPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			hashPasswordCmd.Usage()
			return errHelp
		}
		return cli.hashPassword(*hashPasswordEmail, string(pwd))

	case "migrate":
		if err := migrateCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if migrateCmd.NArg() == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(migrateCmd.Arg(0))

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.export(*exportFormat, *exportSearch, *exportOut, *exportEmail)

	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importTutors(*importFile)

	case "unassign":
		if err := unassignCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *unassignTutor == "" || *unassignIndex < 0 {
			unassignCmd.Usage()
			return errHelp
		}
		return cli.unassign(*unassignTutor, *unassignIndex)

	default:
		cli.printUsage()
		return errHelp
	}
}

// describe renders validation errors as "field: message" lines.
func (cli *commandLine) describe(err error) error {
	var msgs []string
	switch vErr := err.(type) {
	case validator.ValidationErrors:
		for _, fe := range vErr {
			msgs = append(msgs, fe.Field()+": "+fe.Translate(cli.translator))
		}
	case *core.ValidationError:
		for fld, msg := range vErr.FieldMap() {
			msgs = append(msgs, fld+": "+msg)
		}
	default:
		return err
	}
	if len(msgs) == 0 {
		return err
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "\n"))
}
