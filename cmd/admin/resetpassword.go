package main

import "context"

func (cli *commandLine) resetPassword(cellID, pwd string) error {
	if err := cli.users.ResetPassword(context.Background(), cellID, pwd); err != nil {
		return err
	}
	cli.logger.Infow("password reset", "cell_id", cellID)
	return nil
}
