package config

import (
	"encoding/json"
	"fmt"

	"github.com/quasilyte/gdata"
)

const profilesItem = "profiles"

// ItemStore is the part of *gdata.Manager that profile persistence needs.
type ItemStore interface {
	LoadItem(itemKey string) ([]byte, error)
	SaveItem(itemKey string, data []byte) error
}

// OpenStore opens the per-user data store of appName.
func OpenStore(appName string) (*gdata.Manager, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("open data store: %w", err)
	}
	return m, nil
}

// LoadProfileOverrides applies the saved profile overrides on top of
// DeadReckoning.Profiles and returns the kinds it changed. Fields missing
// from a saved profile keep their current value; a kind without a current
// profile starts from the default kind's.
func LoadProfileOverrides(store ItemStore) ([]string, error) {
	data, err := store.LoadItem(profilesItem)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	if len(data) == 0 {
		// Nothing saved yet, keep defaults
		return nil, nil
	}

	var saved map[string]json.RawMessage
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("parse saved profiles: %w", err)
	}

	profiles := make(map[string]Profile, len(saved))
	for kind, raw := range saved {
		p, ok := DeadReckoning.Profiles[kind]
		if !ok {
			p = DeadReckoning.Profiles[DeadReckoning.DefaultKind]
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parse saved profile %q: %w", kind, err)
		}
		profiles[kind] = p.Sanitize()
	}

	kinds := make([]string, 0, len(profiles))
	for kind, p := range profiles {
		DeadReckoning.Profiles[kind] = p
		kinds = append(kinds, kind)
	}
	logger.Info("profile overrides loaded", "kinds", kinds)
	return kinds, nil
}

// SaveProfiles writes every current profile to store.
func SaveProfiles(store ItemStore) error {
	data, err := json.Marshal(DeadReckoning.Profiles)
	if err != nil {
		return fmt.Errorf("serialize profiles: %w", err)
	}
	if err := store.SaveItem(profilesItem, data); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}
