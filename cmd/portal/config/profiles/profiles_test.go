package profiles_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	prof "github.com/strongaya/fdm-portal/cmd/portal/config/profiles"
)

func TestConfig(t *testing.T) {
	t.Run("unmarshalling works well", func(t *testing.T) {
		conf, err := prof.Unmarshall([]byte(`
profname:
    serverURL: "https://v6.example.com"
    serverPort: 443
    serverAPI: "api"
    username: "portal-service"
    password: "s3cret"
    collaboration: 1
    aggregatingOrganisation: 4
`))
		if err != nil {
			t.Fatalf("failed to unmarshal.: %+v", err)
		}
		p, ok := conf["profname"]
		if !ok {
			t.Fatal("config has not profile")
		}

		if p.ServerURL != "https://v6.example.com" {
			t.Errorf("serverURL unmatch. (actual, expected) = (%s, https://v6.example.com)", p.ServerURL)
		}
		if p.Username != "portal-service" {
			t.Errorf("username unmatch. (actual, expected) = (%s, portal-service)", p.Username)
		}
		if p.Collaboration != 1 || p.AggregatingOrganisation != 4 {
			t.Errorf("ids unmatch: %+v", p)
		}
	})
}

func TestProfile(t *testing.T) {
	t.Run("verify profile", func(t *testing.T) {
		for name, testcase := range map[string]struct {
			prof      *prof.Profile
			toBeValid error
		}{
			"all values are set, it is valid": {
				prof: &prof.Profile{
					ServerURL:               "https://v6.example.com",
					Username:                "portal-service",
					Password:                "s3cret",
					Collaboration:           1,
					AggregatingOrganisation: 4,
				},
				toBeValid: nil,
			},
			"no private key path is ok": {
				prof: &prof.Profile{
					ServerURL:               "https://v6.example.com",
					Username:                "portal-service",
					Password:                "s3cret",
					PrivateKeyPath:          "",
					Collaboration:           1,
					AggregatingOrganisation: 4,
				},
				toBeValid: nil,
			},
			"when the server url is missing, it is not valid": {
				prof: &prof.Profile{
					Username:                "portal-service",
					Password:                "s3cret",
					Collaboration:           1,
					AggregatingOrganisation: 4,
				},
				toBeValid: prof.ErrProfileInvalid,
			},
			"when the collaboration is missing, it is not valid": {
				prof: &prof.Profile{
					ServerURL:               "https://v6.example.com",
					Username:                "portal-service",
					Password:                "s3cret",
					AggregatingOrganisation: 4,
				},
				toBeValid: prof.ErrProfileInvalid,
			},
		} {
			t.Run(name, func(t *testing.T) {
				if !errors.Is(testcase.prof.Verify(), testcase.toBeValid) {
					t.Errorf(
						"profile verification wrong. toBeValid?(=%v) content = %+v",
						testcase.toBeValid, testcase.prof,
					)
				}
			})
		}
	})
}

func TestProfileStore(t *testing.T) {
	t.Run("save and load round-trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store", "profile")

		store := prof.ProfileStore{
			"default": {
				ServerURL:               "https://v6.example.com",
				Username:                "portal-service",
				Password:                "s3cret",
				Collaboration:           1,
				AggregatingOrganisation: 4,
			},
		}
		if err := store.Save(path); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		loaded, err := prof.LoadProfileStore(path)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		p, ok := loaded["default"]
		if !ok {
			t.Fatal("saved profile is not found")
		}
		if *p != *store["default"] {
			t.Errorf("unmatch: (actual, expected) = (%+v, %+v)", *p, *store["default"])
		}

		if _, err := os.Stat(path + ".backup"); !os.IsNotExist(err) {
			t.Errorf("backup file is left behind: %v", err)
		}
	})

	t.Run("loading a missing store is ErrProfileStoreNotFound", func(t *testing.T) {
		_, err := prof.LoadProfileStore(filepath.Join(t.TempDir(), "no-such-file"))
		if !errors.Is(err, prof.ErrProfileStoreNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("saving twice keeps the latest content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile")

		store := prof.ProfileStore{
			"default": {
				ServerURL:               "https://v6.example.com",
				Username:                "portal-service",
				Password:                "s3cret",
				Collaboration:           1,
				AggregatingOrganisation: 4,
			},
		}
		if err := store.Save(path); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		store["staging"] = &prof.Profile{
			ServerURL:               "https://staging.example.com",
			Username:                "portal-service",
			Password:                "s3cret",
			Collaboration:           2,
			AggregatingOrganisation: 9,
		}
		if err := store.Save(path); err != nil {
			t.Fatalf("failed to save again: %v", err)
		}

		loaded, err := prof.LoadProfileStore(path)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if len(loaded) != 2 {
			t.Errorf("unmatch: profiles: (actual, expected) = (%d, 2)", len(loaded))
		}
	})
}
