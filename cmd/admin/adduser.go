package main

import (
	"context"

	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
)

func (cli *commandLine) addUser(cellID, name, pwd string, admin bool) error {
	role := userentity.RoleLeader
	if admin {
		role = userentity.RoleAdmin
	}
	u, err := cli.users.Create(context.Background(), cellID, name, pwd, role)
	if err != nil {
		return err
	}
	cli.logger.Infow("user created", "id", u.ID, "cell_id", u.CellID, "role", u.Role)
	return nil
}
