package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/findmytutor/findmytutor/core/admin"
)

func (cli *commandLine) hashPassword(email, pwd string) error {
	np := admin.NewPassword{Email: email, Password: pwd}
	if err := np.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}

	hash, err := admin.HashPassword(np.Password)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	fmt.Fprintf(cli.out, "ADMIN_EMAIL=%s\nADMIN_PASSWORD_HASH=%s\n", np.Email, hash)
	return nil
}
