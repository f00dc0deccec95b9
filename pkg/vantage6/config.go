// Package vantage6 is a thin client for the parts of the Vantage6 API
// the portal needs: authenticating a service account, submitting
// algorithm tasks to a collaboration and collecting their results.
package vantage6

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// secretsDir is where Docker mounts secrets inside a container.
const DefaultSecretsDir = "/run/secrets"

// the secrets the provisioning scripts create, one file each.
const (
	SecretUsername                = "vantage6_service_username"
	SecretPassword                = "vantage6_service_password"
	SecretServerURL               = "vantage6_server_url"
	SecretServerPort              = "vantage6_server_port"
	SecretServerAPI               = "vantage6_server_api"
	SecretPrivateKeyPath          = "vantage6_private_key_path"
	SecretCollaboration           = "vantage6_collaboration"
	SecretAggregatingOrganisation = "vantage6_aggregating_organisation"
)

// ErrNoSecrets means no Vantage6 secret was found at all. The caller
// should fall back to mock data rather than treat this as a failure.
var ErrNoSecrets = errors.New("no vantage6 secrets are provided")

// ID is an integer identifier which may be spelled as a JSON number or
// as a numeric string. Secrets always arrive as strings.
type ID int

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer id: %s: %w", string(b), err)
	}
	*id = ID(n)
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(id))
}

// Config carries everything needed to reach a Vantage6 server and
// address one collaboration on it.
type Config struct {
	ServerURL  string `json:"server_url"`
	ServerPort int    `json:"server_port"`
	ServerAPI  string `json:"server_api"`

	Username string `json:"username"`
	Password string `json:"password"`

	// OrganizationKey is a path to the organisation's private key for
	// end-to-end encryption. Empty means no encryption.
	OrganizationKey string `json:"organization_key"`

	Collaboration           ID `json:"collaboration"`
	AggregatingOrganisation ID `json:"aggregating_organisation"`
}

// LoadConfig reads a network configuration JSON file.
func LoadConfig(path string) (Config, error) {
	if !strings.HasSuffix(path, ".json") {
		return Config{}, fmt.Errorf("network configuration should be a .json file: %s", path)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read network configuration %s: %w", path, err)
	}

	c := Config{}
	if err := json.Unmarshal(buf, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse network configuration %s: %w", path, err)
	}
	return c, nil
}

// FromSecrets builds a Config from Docker secrets in dir.
//
// Each secret is a file named after the secret, holding the bare value.
// Missing files read as empty values; when every secret is missing,
// FromSecrets returns ErrNoSecrets.
func FromSecrets(dir string) (Config, error) {
	found := false
	read := func(name string) string {
		buf, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return ""
		}
		found = true
		return strings.TrimSpace(string(buf))
	}

	c := Config{
		Username:        read(SecretUsername),
		Password:        read(SecretPassword),
		ServerURL:       read(SecretServerURL),
		ServerAPI:       read(SecretServerAPI),
		OrganizationKey: read(SecretPrivateKeyPath),
	}

	if port := read(SecretServerPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("secret %s is not a port number: %w", SecretServerPort, err)
		}
		c.ServerPort = p
	}
	if collaboration := read(SecretCollaboration); collaboration != "" {
		n, err := strconv.Atoi(collaboration)
		if err != nil {
			return Config{}, fmt.Errorf("secret %s is not an integer id: %w", SecretCollaboration, err)
		}
		c.Collaboration = ID(n)
	}
	if organisation := read(SecretAggregatingOrganisation); organisation != "" {
		n, err := strconv.Atoi(organisation)
		if err != nil {
			return Config{}, fmt.Errorf("secret %s is not an integer id: %w", SecretAggregatingOrganisation, err)
		}
		c.AggregatingOrganisation = ID(n)
	}

	if !found {
		return Config{}, ErrNoSecrets
	}
	return c, nil
}

// Verify checks that the Config can address a server and a collaboration.
func (c Config) Verify() error {
	missing := []string{}
	if c.ServerURL == "" {
		missing = append(missing, "server_url")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.Collaboration == 0 {
		missing = append(missing, "collaboration")
	}
	if c.AggregatingOrganisation == 0 {
		missing = append(missing, "aggregating_organisation")
	}
	if 0 < len(missing) {
		return fmt.Errorf("vantage6 configuration misses: %s", strings.Join(missing, ", "))
	}
	return nil
}

// APIRoot is the base URL of the server's API, e.g.
// "https://server.example:443/api".
func (c Config) APIRoot() string {
	base := strings.TrimSuffix(c.ServerURL, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	if c.ServerPort != 0 {
		base = fmt.Sprintf("%s:%d", base, c.ServerPort)
	}
	api := strings.TrimPrefix(strings.TrimSuffix(c.ServerAPI, "/"), "/")
	if api == "" {
		return base
	}
	return base + "/" + api
}
