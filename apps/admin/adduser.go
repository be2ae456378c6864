package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/user"
)

// addUser creates a user. Roles may be given without their trailing colon: "admin" or "admin:".
func (cli *commandLine) addUser(name, email string, roles []string) error {
	nu := user.NewUser{Name: name, Email: email}
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if !strings.HasSuffix(role, ":") {
			role += ":"
		}
		nu.Roles = append(nu.Roles, role)
	}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}

	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	fmt.Fprintf(cli.out, "user created: %s\n", usr.ID)
	return nil
}
