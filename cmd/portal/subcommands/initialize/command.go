package initialize

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"

	prof "github.com/strongaya/fdm-portal/cmd/portal/config/profiles"
	"github.com/strongaya/fdm-portal/cmd/portal/subcommands/common"
)

const ARG_PROFILE_FILE = "PROFILE_FILE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"initialize this directory as a portal-managed project.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_PROFILE_FILE, Required: true,
				Help: "filepath to a profile file, which you received from your admin.",
			},
		},
		common.NewTaskWithCommonFlag(Task()),
		flarc.WithDescription(`
Register a new connection profile into your profile store.

A profile is a yaml file which describes a Vantage6 server and the
collaboration to submit tasks to.
"{{ .Command }}" registers the given profile into your profile store.

The name of the profile is given by "--profile" ( default: current filepath ).
`),
	)
}

func Task() common.TaskWithCommonFlag[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		cf common.CommonFlags,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		profFile := cl.Args()[ARG_PROFILE_FILE][0]

		store, err := prof.LoadProfileStore(cf.ProfileStore)
		if errors.Is(err, prof.ErrProfileStoreNotFound) {
			// ok.
			store = prof.ProfileStore{}
		} else if err != nil {
			return err
		}

		newProf := new(prof.Profile)
		{
			content, err := os.ReadFile(profFile)
			if err != nil {
				return err
			}
			if err := yaml.Unmarshal(content, newProf); err != nil {
				return err
			}
		}
		if err := newProf.Verify(); err != nil {
			return errors.Join(flarc.ErrUsage, err)
		}

		profName := cf.Profile
		store[profName] = newProf
		if err := store.Save(cf.ProfileStore); err != nil {
			return err
		}
		logger.Printf("profile %s is saved to %s", profName, cf.ProfileStore)

		{
			f, err := os.OpenFile(".fdmprofile", os.O_RDWR|os.O_CREATE|os.O_TRUNC, os.FileMode(0600))
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := f.Write([]byte(profName)); err != nil {
				return err
			}
		}

		return nil
	}
}
