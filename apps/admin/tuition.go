package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

func (cli *commandLine) unassign(tutorID string, index int) error {
	t, err := cli.tutorSvc.Remove(context.Background(), tutorID, index)
	if err != nil {
		return cli.describe(errors.Cause(err))
	}
	fmt.Fprintf(cli.out, "%s now holds %d assignments\n", t.Name, len(t.AssignedTuitions))
	return nil
}
