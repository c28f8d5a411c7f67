package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type createUserCmd struct {
	username string
	password string
}

func (*createUserCmd) Name() string     { return "create-user" }
func (*createUserCmd) Synopsis() string { return "create a dashboard user or reset its password" }
func (*createUserCmd) Usage() string {
	return `create-user -username <name> -password <password>

  Stores a bcrypt hash of the password. An existing user gets its password replaced.
`
}

func (c *createUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "login name (required)")
	f.StringVar(&c.password, "password", "", "password (required)")
}

func (c *createUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "Error: -username and -password are required.")
		return subcommands.ExitUsageError
	}

	ctx, deps, err := connect(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer deps.Close()

	user, err := deps.AuthService().CreateUser(ctx, c.username, c.password)
	if err != nil {
		return fail("%v", err)
	}
	fmt.Printf("User %s saved with id %d\n", user.Username, user.ID)
	return subcommands.ExitSuccess
}
