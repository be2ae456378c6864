package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) reconcile() error {
	count, err := cli.certSvc.Reconcile(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d certificate(s) issued\n", count)
	return nil
}
