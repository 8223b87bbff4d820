package main

// cliError carries the exit code a subcommand wants main to return,
// following spec §6's contract: 0 success, 1 generic error, 2
// config/usage, 3 startup dependency failure, 130 SIGINT.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

// configErr wraps err as a config/usage failure (exit code 2), per spec
// §7's Config row: "invalid flag / env -> none -> exit code 2 at startup".
func configErr(err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: 2, err: err}
}

// startupErr wraps err as a startup dependency failure (exit code 3) —
// a database, coordinator, or other required dependency could not be
// reached during bootstrap.
func startupErr(err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: 3, err: err}
}

// runErr wraps err as a generic runtime failure (exit code 1).
func runErr(err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: 1, err: err}
}
