package store

import "context"

const systemSettingSchemaVersion = "schema_version"

type SystemSetting struct {
	Name  string
	Value string
}

func (s *Store) UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error) {
	return s.driver.UpsertSystemSetting(ctx, upsert)
}

// GetSystemSetting returns nil without error when the setting is absent.
func (s *Store) GetSystemSetting(ctx context.Context, name string) (*SystemSetting, error) {
	return s.driver.GetSystemSetting(ctx, name)
}
