package main

import (
	"context"
	"fmt"
	"time"
)

// anonymize scrubs identifying data of users soft-deleted longer than
// `before` ago. Deletion via the API only hides accounts; this makes the
// removal permanent.
func (cli *commandLine) anonymize(before time.Duration) error {
	cutoff := time.Now().UTC().Add(-before)
	n, err := cli.usrSvc.Anonymize(context.Background(), cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("%d user(s) anonymized\n", n)
	return nil
}
