package config

import "os"

// CredentialStore abstracts the platform secure-credential store (OS
// keychain, encrypted file, etc). OAuth
// flows and the interactive wizard live outside this module; NullStore
// is the only implementation carried here, and any real store plugs into
// the same interface.
type CredentialStore interface {
	Get(provider string) (string, bool)
}

// NullStore never has a credential; it exists so ResolveCredential always
// has something to call even when no secure store is wired in.
type NullStore struct{}

func (NullStore) Get(string) (string, bool) { return "", false }

// ResolveCredential implements the single resolver priority order every
// provider shares: explicit argument > environment variable > secure
// store > config file. provider is the lowercase provider name (e.g.
// "openai"), used to build the env var name SUBGEN_<PROVIDER>_API_KEY.
func ResolveCredential(explicit string, provider string, store CredentialStore, cfgKey string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv(envVarName(provider)); v != "" {
		return v
	}
	if store != nil {
		if v, ok := store.Get(provider); ok && v != "" {
			return v
		}
	}
	return cfgKey
}

func envVarName(provider string) string {
	b := make([]byte, 0, len(provider)+7)
	b = append(b, "SUBGEN_"...)
	for i := 0; i < len(provider); i++ {
		c := provider[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		b = append(b, c)
	}
	return string(b) + "_API_KEY"
}
