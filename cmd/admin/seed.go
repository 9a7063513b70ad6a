package main

import (
	"context"

	"github.com/ovaphlow/cellgroup/internal/cellgroup"
	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
	"github.com/ovaphlow/cellgroup/pkg/database"
)

type seedGroup struct {
	group   cellgroup.CreateInput
	members []string
}

var (
	seedAdmin = struct{ cellID, name, password string }{"admin", "Administrator", "admin123"}

	seedGroups = []seedGroup{
		{
			group:   cellgroup.CreateInput{Name: "Faith Cell", LeaderName: "John Smith", CellID: "cell001", Password: "leader123"},
			members: []string{"Alice Johnson", "Bob Williams", "Carol Davis", "David Brown"},
		},
		{
			group:   cellgroup.CreateInput{Name: "Hope Cell", LeaderName: "Mary Johnson", CellID: "cell002", Password: "leader123"},
			members: []string{"Emma Wilson", "Frank Miller", "Grace Taylor"},
		},
	}
)

// seed creates the default accounts. The admin is only created when no admin
// account exists yet; a leader whose cell id already exists is left alone
// together with its group.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	admins, err := cli.users.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if admins > 0 {
		cli.logger.Infow("seed: admin exists, skipping", "admins", admins)
	} else {
		if _, err := cli.users.Create(ctx, seedAdmin.cellID, seedAdmin.name, seedAdmin.password, userentity.RoleAdmin); err != nil {
			return err
		}
		cli.logger.Infow("seed: admin created", "cell_id", seedAdmin.cellID)
	}

	for _, sg := range seedGroups {
		exists, err := cli.cellIDExists(ctx, sg.group.CellID)
		if err != nil {
			return err
		}
		if exists {
			cli.logger.Infow("seed: leader exists, skipping group", "cell_id", sg.group.CellID, "group", sg.group.Name)
			continue
		}
		d, err := cli.groups.Create(ctx, sg.group)
		if err != nil {
			return err
		}
		for _, name := range sg.members {
			if _, err := cli.members.CreateInGroup(ctx, d.ID, name); err != nil {
				return err
			}
		}
		cli.logger.Infow("seed: cell group created", "group", d.Name, "cell_id", sg.group.CellID, "members", len(sg.members))
	}
	return nil
}

func (cli *commandLine) cellIDExists(ctx context.Context, cellID string) (bool, error) {
	_, err := cli.users.GetByCellID(ctx, cellID)
	if err == nil {
		return true, nil
	}
	if database.IsNoRows(err) {
		return false, nil
	}
	return false, err
}
