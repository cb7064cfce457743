package core

import (
	"context"

	"github.com/wordvault/wordvault/internal/encoding"
)

// The profile configuration singleton: one fixed-id document per store,
// replaced wholesale on update. The storage layer never merges partial
// configs; callers supply the full replacement.

// GetProfileConfig returns the profile configuration, or ErrNotFound when
// the profile has not been configured yet.
func (s *Store) GetProfileConfig(ctx context.Context) (*ProfileConfig, error) {
	const op = "get_profile_config"

	raw, err := s.Get(ctx, ProfileConfigID, DocTypeProfileConfig)
	if err != nil {
		return nil, err
	}

	var cfg ProfileConfig
	if err := encoding.DecodePayload(raw.Payload, &cfg); err != nil {
		return nil, wrapError(op, ErrCorruptPayload)
	}
	return &cfg, nil
}

// SetProfileConfig replaces the profile configuration wholesale.
func (s *Store) SetProfileConfig(ctx context.Context, cfg ProfileConfig) error {
	const op = "set_profile_config"

	payload, err := encoding.EncodePayload(cfg)
	if err != nil {
		return wrapError(op, err)
	}
	return s.Put(ctx, ProfileConfigID, DocTypeProfileConfig, "", payload)
}
