package main

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/mail"
	"os"

	"github.com/pkg/errors"

	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/tutor"
)

func (cli *commandLine) export(format, search, out, email string) error {
	f, err := tutor.ParseExportFormat(format)
	if err != nil {
		return errors.Wrap(err, format)
	}
	var to *mail.Address
	if email != "" {
		if to, err = mail.ParseAddress(email); err != nil {
			return errors.Wrap(err, "parsing email")
		}
	}

	tutors, err := cli.tutorSvc.List(context.Background(), tutor.QueryFilter{Search: search}, nil)
	if err != nil {
		return errors.Wrap(err, "listing tutors")
	}
	var buf bytes.Buffer
	if err = tutor.Export(&buf, f, tutors, cli.conf.ExportLocation()); err != nil {
		return errors.Wrap(err, "exporting tutors")
	}

	switch {
	case out != "":
		if err = ioutil.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return errors.Wrap(err, "writing export")
		}
		fmt.Fprintf(cli.out, "%d tutors exported to %s\n", len(tutors), out)
	case to == nil:
		_, err = cli.out.Write(buf.Bytes())
		return err
	}

	if to != nil {
		cli.mailSvc.SendMessages(&core.EmailMessage{
			To:          []mail.Address{*to},
			Subject:     "Tutors export",
			TextContent: fmt.Sprintf("%d tutors are attached.", len(tutors)),
			Attachments: []core.Attachment{{Data: buf.Bytes(), ContentType: f.ContentType(), Filename: f.Filename()}},
		})
		cli.mailSvc.Wait()
		fmt.Fprintf(cli.out, "%d tutors sent to %s\n", len(tutors), to.Address)
	}
	return nil
}

func (cli *commandLine) importTutors(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening workbook")
	}
	defer file.Close()

	rows, err := tutor.ReadXLSX(file)
	if err != nil {
		return err
	}

	// validate everything before writing anything
	for i := range rows {
		if err = rows[i].Validate(cli.validate); err != nil {
			return errors.Wrapf(cli.describe(err), "row %d", i+2)
		}
	}

	ctx := context.Background()
	for i, nt := range rows {
		if _, err = cli.tutorSvc.Create(ctx, nt); err != nil {
			return errors.Wrapf(cli.describe(errors.Cause(err)), "row %d", i+2)
		}
	}
	fmt.Fprintf(cli.out, "%d tutors imported\n", len(rows))
	return nil
}
