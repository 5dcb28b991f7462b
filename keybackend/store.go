package keybackend

// KeysConfig holds configuration for loading signing keys.
type KeysConfig struct {
	Active string       `mapstructure:"active"` // Key id new tokens are signed with
	Inline []SigningKey `mapstructure:"inline"` // Inline keys from config
	File   string       `mapstructure:"file"`   // Path to JSON file containing keys
}

// NewKeyRing creates a key ring from the given configuration.
// It loads keys from both inline config and file (if specified), merging
// them into a single ring. File keys take precedence over inline keys if
// there are duplicates. ErrNoKeys is returned when nothing is configured.
func NewKeyRing(cfg KeysConfig) (*MapKeyRing, error) {
	keys := make(map[string]string)

	for _, k := range cfg.Inline {
		if k.KeyID != "" && k.Secret != "" {
			keys[k.KeyID] = k.Secret
		}
	}

	if cfg.File != "" {
		fileKeys, err := LoadKeysFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for id, secret := range fileKeys {
			keys[id] = secret
		}
	}

	return NewMapKeyRing(keys, cfg.Active)
}
