package auth

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CredentialKey is the key the session stores its token under.
const CredentialKey = "github-token"

// CredentialStore persists secrets. Delete must treat a missing key as
// success.
type CredentialStore interface {
	Save(key, secret string) error
	Retrieve(key string) (string, bool, error)
	Delete(key string) error
}

// FileStore keeps credentials in a YAML file with 0600 permissions. It
// stands in for the OS credential vault the desktop builds use.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(key, secret string) error {
	creds, err := s.load()
	if err != nil {
		return err
	}
	creds[key] = secret

	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create credentials dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Retrieve(key string) (string, bool, error) {
	creds, err := s.load()
	if err != nil {
		return "", false, err
	}
	secret, ok := creds[key]
	return secret, ok, nil
}

func (s *FileStore) Delete(key string) error {
	creds, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := creds[key]; !ok {
		return nil
	}
	delete(creds, key)

	if len(creds) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete credentials: %w", err)
		}
		return nil
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

func (s *FileStore) load() (map[string]string, error) {
	creds := map[string]string{}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return creds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return creds, nil
}
