// Package profiles is the CLI's credential store: named Vantage6
// connection profiles in a yaml file only the current user can read.
package profiles

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hectane/go-acl"
	yaml "gopkg.in/yaml.v3"

	"github.com/strongaya/fdm-portal/cmd/portal/config/open"
	"github.com/strongaya/fdm-portal/pkg/vantage6"
)

var ErrProfileStoreNotFound = errors.New("profile store file is not found")
var ErrCannotCreateStore = errors.New("cannot create profile store file")
var ErrCannotUpdateStore = errors.New("cannot update profile store file")
var ErrProfileInvalid = errors.New("profile is invalid")

// ProfileStore is a map from profile name to Profile.
type ProfileStore map[string]*Profile

// Profile is a connection to one Vantage6 server and collaboration.
type Profile struct {
	ServerURL  string `yaml:"serverURL"`
	ServerPort int    `yaml:"serverPort,omitempty"`
	ServerAPI  string `yaml:"serverAPI,omitempty"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// PrivateKeyPath points at the organisation's key for end-to-end
	// encryption. Empty means the collaboration is unencrypted.
	PrivateKeyPath string `yaml:"privateKeyPath,omitempty"`

	Collaboration           int `yaml:"collaboration"`
	AggregatingOrganisation int `yaml:"aggregatingOrganisation"`
}

// Vantage6 spells the Profile as a client configuration.
func (p *Profile) Vantage6() vantage6.Config {
	return vantage6.Config{
		ServerURL:               p.ServerURL,
		ServerPort:              p.ServerPort,
		ServerAPI:               p.ServerAPI,
		Username:                p.Username,
		Password:                p.Password,
		OrganizationKey:         p.PrivateKeyPath,
		Collaboration:           vantage6.ID(p.Collaboration),
		AggregatingOrganisation: vantage6.ID(p.AggregatingOrganisation),
	}
}

// Verify the Profile.
//
// # Return
//
// nil if it is valid. Otherwise, ErrProfileInvalid error.
func (p *Profile) Verify() error {
	if err := p.Vantage6().Verify(); err != nil {
		return fmt.Errorf("%w: %s", ErrProfileInvalid, err)
	}
	return nil
}

// LoadProfileStore loads profile store from file.
func LoadProfileStore(filepath string) (ProfileStore, error) {
	buf, err := os.ReadFile(filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, filepath)
		}
		return nil, err
	}
	return Unmarshall(buf)
}

// Unmarshall profile store from yaml in byte array.
func Unmarshall(buf []byte) (ProfileStore, error) {
	ret := map[string]*Profile{}
	err := yaml.Unmarshal(buf, &ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Save profile store to file.
//
// The previous content survives at PATH.backup until the write is done,
// and the file ends up with mode 0600 whatever it had before.
func (ps *ProfileStore) Save(path string) error {
	saving := false

	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0700)); err != nil {
		return err
	}

	bkpath := path + ".backup"
	bk, err := open.Private(bkpath)
	if err != nil {
		return err
	}
	defer func() {
		if !saving {
			os.Remove(bkpath)
		}
	}()
	defer bk.Close()

	f, err := os.OpenFile(path, os.O_RDWR, os.FileMode(0600))
	if err == nil {
		// In case of an existing file with loose permissions,
		// enforce permission to 0600.
		if err := acl.Chmod(path, os.FileMode(0600)); err != nil {
			return err
		}
	} else {
		if os.IsPermission(err) {
			return fmt.Errorf(
				"%w, because no permission to write file at %s",
				ErrCannotUpdateStore, path,
			)
		} else if os.IsNotExist(err) {
			f_, err_ := open.Private(path)
			if err_ != nil {
				return fmt.Errorf(
					"%w: cannot create a file at %s",
					ErrCannotCreateStore, path,
				)
			}
			f = f_
		} else {
			return err
		}
	}
	defer f.Close()

	if err := bk.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	if _, err := io.Copy(bk, f); err != nil {
		return err
	}

	saving = true
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	buf, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}
	_, err = f.Write(buf)

	if err == nil {
		saving = false
	}
	return err
}
